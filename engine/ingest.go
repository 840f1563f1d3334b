package engine

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"jsonmidiplayer/document"
	"jsonmidiplayer/registry"
)

// deviceResolver memoizes the devices-directive -> Endpoint resolution
// per distinct candidate list. golang.org/x/sync/singleflight backs the
// once-per-key computation; a plain map caches the result beyond a
// single call's lifetime, since Do alone only dedupes concurrent
// callers and would otherwise recompute on every later sequential
// lookup with the same key.
type deviceResolver struct {
	reg   *registry.Registry
	cache map[string]*registry.Endpoint
	group singleflight.Group
}

func newDeviceResolver(reg *registry.Registry) *deviceResolver {
	return &deviceResolver{reg: reg, cache: make(map[string]*registry.Endpoint)}
}

func (d *deviceResolver) resolve(candidates []string) (*registry.Endpoint, bool) {
	key := strings.Join(candidates, "\x00")
	if ep, ok := d.cache[key]; ok {
		return ep, ep != nil
	}
	v, _, _ := d.group.Do(key, func() (interface{}, error) {
		ep, _ := d.reg.Resolve(candidates)
		return ep, nil
	})
	ep, _ := v.(*registry.Endpoint)
	d.cache[key] = ep
	return ep, ep != nil
}

// IngestFiles walks the document tree and yields a flat, unordered
// sequence of admitted pins plus the count of excluded message
// entries. Pins are not yet sorted; that happens in a later pass.
func IngestFiles(reg *registry.Registry, files []document.File, log *zap.Logger) ([]*Pin, int) {
	if log == nil {
		log = zap.NewNop()
	}
	resolver := newDeviceResolver(reg)

	var pins []*Pin
	excluded := 0
	order := 0

	for fi, f := range files {
		if !f.WellFormed() {
			log.Warn("skipping file with unrecognized filetype/url",
				zap.Int("file_index", fi), zap.String("filetype", f.FileType), zap.String("url", f.URL))
			continue
		}

		var currentEndpoint *registry.Endpoint
		for ei, el := range f.Content {
			switch {
			case el.IsDevices():
				ep, found := resolver.resolve(el.Devices)
				if found {
					currentEndpoint = ep
				} else {
					currentEndpoint = nil
					log.Debug("devices directive did not resolve to any endpoint",
						zap.Int("file_index", fi), zap.Strings("candidates", el.Devices))
				}

			case el.IsMessage():
				pin, reason := ingestOneMessage(el, currentEndpoint, order)
				if pin == nil {
					excluded++
					log.Debug("message excluded",
						zap.Int("file_index", fi), zap.Int("element_index", ei), zap.String("reason", reason.String()))
					continue
				}
				pins = append(pins, pin)
				order++

			default:
				// Neither shape recognized; unrecognized elements are
				// ignored, not counted as excluded.
			}
		}
	}

	return pins, excluded
}

// ingestOneMessage validates and assembles a single message element
// into a Pin. A recover() guards the single call site: an unexpected
// panic during assembly is caught and the element is skipped rather
// than taking the whole ingest pass down.
func ingestOneMessage(el document.Element, endpoint *registry.Endpoint, order int) (pin *Pin, reason RejectReason) {
	defer func() {
		if r := recover(); r != nil {
			pin = nil
			reason = RejectUnknownPanic
		}
	}()

	if el.TimeMS == nil || *el.TimeMS < 0 {
		return nil, RejectNegativeTime
	}
	if endpoint == nil {
		return nil, RejectUnresolvedEndpoint
	}

	bytes, priority, reason := assembleMessage(*el.MIDIMessage)
	if reason != RejectNone {
		return nil, reason
	}

	return &Pin{
		TimeMS:        *el.TimeMS,
		EndpointIndex: endpoint.Index,
		Bytes:         bytes,
		Priority:      priority,
		Level:         1,
		inputOrder:    order,
	}, RejectNone
}

const (
	statusNoteOff         = 0x80
	statusNoteOn          = 0x90
	statusPolyKeyPressure = 0xA0
	statusControlChange   = 0xB0
	statusProgramChange   = 0xC0
	statusChannelPressure = 0xD0
	statusPitchBend       = 0xE0

	statusSysExStart    = 0xF0
	statusSongPosition  = 0xF2
	statusTuneRequest   = 0xF6
	statusClockTiming   = 0xF8
	statusClockStart    = 0xFA
	statusClockContinue = 0xFB
	statusClockStop     = 0xFC
	statusActiveSensing = 0xFE
	statusSystemReset   = 0xFF
)

// isDataByte reports whether b is a legal 7-bit MIDI data byte.
func isDataByte(b uint8) bool { return b <= 127 }

// assembleMessage validates a MIDIMessage against the MIDI wire
// grammar and builds its on-wire bytes and dispatch priority. The
// high nibble of status selects the shape; system messages further
// dispatch on the exact status byte.
func assembleMessage(m document.MIDIMessage) (bytes []byte, priority uint8, reason RejectReason) {
	status := m.StatusByte
	nibble := status & 0xF0

	switch nibble {
	case statusNoteOff, statusNoteOn, statusPolyKeyPressure:
		d1, d2, ok := twoDataBytes(m)
		if !ok {
			return nil, 0, RejectDataByteRange
		}
		pnib := uint8(0x4)
		if nibble == statusNoteOn {
			pnib = 0x5
		} else if nibble == statusPolyKeyPressure {
			pnib = 0x8
		}
		return []byte{status, d1, d2}, finalPriority(pnib, status), RejectNone

	case statusControlChange:
		d1, d2, ok := twoDataBytes(m)
		if !ok {
			return nil, 0, RejectDataByteRange
		}
		var pnib uint8
		switch {
		case d1 == 0 || d1 == 32:
			pnib = 0x0 // Bank Select
		case d1 == 1:
			pnib = 0x6 // Modulation
		default:
			pnib = 0x2
		}
		return []byte{status, d1, d2}, finalPriority(pnib, status), RejectNone

	case statusProgramChange, statusChannelPressure:
		if m.DataByte == nil || !isDataByte(*m.DataByte) {
			return nil, 0, RejectDataByteRange
		}
		pnib := uint8(0x1)
		if nibble == statusChannelPressure {
			pnib = 0x8
		}
		return []byte{status, *m.DataByte}, finalPriority(pnib, status), RejectNone

	case statusPitchBend:
		d1, d2, ok := twoDataBytes(m)
		if !ok {
			return nil, 0, RejectDataByteRange
		}
		return []byte{status, d1, d2}, finalPriority(0x7, status), RejectNone

	case 0xF0:
		return assembleSystemMessage(status, m)
	}

	return nil, 0, RejectUnknownStatus
}

func twoDataBytes(m document.MIDIMessage) (d1, d2 uint8, ok bool) {
	if m.DataByte1 == nil || m.DataByte2 == nil {
		return 0, 0, false
	}
	if !isDataByte(*m.DataByte1) || !isDataByte(*m.DataByte2) {
		return 0, 0, false
	}
	return *m.DataByte1, *m.DataByte2, true
}

func assembleSystemMessage(status uint8, m document.MIDIMessage) (bytes []byte, priority uint8, reason RejectReason) {
	switch status {
	case statusSysExStart:
		if len(m.DataBytes) == 0 {
			return nil, 0, RejectMalformedSysEx
		}
		for _, b := range m.DataBytes {
			if b == statusSysExStart || b == 0xF7 {
				return nil, 0, RejectMalformedSysEx
			}
		}
		out := make([]byte, 0, len(m.DataBytes)+2)
		out = append(out, statusSysExStart)
		out = append(out, m.DataBytes...)
		out = append(out, 0xF7)
		return out, finalPriority(0xF, status), RejectNone

	case statusSongPosition:
		d1, d2, ok := twoDataBytes(m)
		if !ok {
			return nil, 0, RejectDataByteRange
		}
		return []byte{status, d1, d2}, finalPriority(0xB, status), RejectNone

	case statusTuneRequest:
		return []byte{status}, finalPriority(0xD, status), RejectNone

	case statusClockTiming, statusClockStart, statusClockContinue, statusClockStop:
		return []byte{status}, finalPriority(0x3, status), RejectNone

	case statusActiveSensing, statusSystemReset:
		return []byte{status}, finalPriority(0xD, status), RejectNone
	}

	return nil, 0, RejectUnknownStatus
}

// finalPriority combines an action priority nibble with the status
// byte's low nibble: the channel nibble is a tie-breaker that keeps
// same-action events on lower channels first.
func finalPriority(nibble uint8, status uint8) uint8 {
	return (nibble << 4) | (status & 0x0F)
}
