package engine

import "errors"

// ErrTransportEnumerationFailed names a failure from the underlying
// MIDI library during port enumeration. No function in this module
// returns it: registry.New enumerates through gomidi.GetOutPorts, which
// reports no error, and an enumeration that yields no ports surfaces as
// registry.ErrNoEndpointsAvailable.
var ErrTransportEnumerationFailed = errors.New("engine: MIDI transport enumeration failed")

// RejectReason classifies why the ingestor refused to admit a message
// element. Modelled as a value rather than an error return: the
// ingestor is a filter-map over elements, not a try/catch maze.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectNegativeTime
	RejectDataByteRange
	RejectUnknownStatus
	RejectUnresolvedEndpoint
	RejectMalformedSysEx
	RejectUnknownPanic
)

func (r RejectReason) String() string {
	switch r {
	case RejectNegativeTime:
		return "negative time_ms"
	case RejectDataByteRange:
		return "data byte out of 0-127 range"
	case RejectUnknownStatus:
		return "unrecognized status byte"
	case RejectUnresolvedEndpoint:
		return "current clip endpoint unresolved"
	case RejectMalformedSysEx:
		return "malformed SysEx payload"
	case RejectUnknownPanic:
		return "unexpected panic during ingestion"
	default:
		return "none"
	}
}
