package engine

// Pin is one ready-to-send MIDI message bound to an endpoint at a
// scheduled millisecond offset. EndpointIndex is an arena index into
// the registry's endpoint slice rather than a pointer, avoiding
// lifetime entanglement between pins and endpoints.
type Pin struct {
	TimeMS        float64
	EndpointIndex int
	Bytes         []byte
	Priority      uint8

	// Level is the Note-On stack counter. Meaningful only for Note
	// On/Off pins; initialised to 1.
	Level int

	// DelayMS is written during the playback loop: the measured
	// difference between intended and actual dispatch time.
	DelayMS float64

	// inputOrder records the position a pin first appeared in the
	// ingested stream; synthetic and closure Note-Offs copy it from the
	// Note-On they belong to. SortPins does not read it: tie order comes
	// from sort.SliceStable keeping the slice's existing order.
	inputOrder int
}

// StatusByte returns the pin's MIDI status byte, or 0 if Bytes is
// empty (which never happens for an admitted pin).
func (p *Pin) StatusByte() uint8 {
	if len(p.Bytes) == 0 {
		return 0
	}
	return p.Bytes[0]
}

// Channel returns the low nibble of the status byte — the MIDI
// channel for channel-voice messages.
func (p *Pin) Channel() uint8 {
	return p.StatusByte() & 0x0F
}
