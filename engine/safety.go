package engine

// This file implements the redundancy and safety pass, the single most
// intricate component of the engine. It walks the sorted pin stream
// once, maintaining per-endpoint state, and produces a new pin stream
// with redundant entries dropped, certain pins rewritten in place,
// synthetic Note-Off pins appended where the stream would otherwise
// leave a note sounding, and a clock left running rewritten to Stop.
//
// Grounded on the per-(device,status,key) last-message tracking lists
// and trailing "add the needed note off for all those still on at the
// end" pass of a reference redundancy loop, generalized here to a
// richer stacking-level and clock state machine.

type noteKey struct {
	endpointIndex int
	channel       uint8
	key           uint8
}

type noteOnEntry struct {
	pin      *Pin
	velocity uint8
	level    int
}

type ccKey struct {
	endpointIndex int
	status        uint8
	dataA         uint8
}

type statusKey struct {
	endpointIndex int
	status        uint8
}

// safetyState holds the per-(endpoint, ...) tracking tables that
// logically belong with the Endpoint but are kept here instead, since
// the tables hold *Pin and Pin is an engine type (see registry.go's
// note on this).
type safetyState struct {
	notesOn     map[noteKey]*noteOnEntry
	lastCCKP    map[ccKey]uint8
	lastBendCP  map[statusKey][2]uint8
	lastClock   map[int]*Pin
	lastSongPtr map[int]*Pin
}

func newSafetyState() *safetyState {
	return &safetyState{
		notesOn:     make(map[noteKey]*noteOnEntry),
		lastCCKP:    make(map[ccKey]uint8),
		lastBendCP:  make(map[statusKey][2]uint8),
		lastClock:   make(map[int]*Pin),
		lastSongPtr: make(map[int]*Pin),
	}
}

// RunSafetyPass consumes the sorted, ingested pin stream and returns
// the final pin stream to hand to the Playback Loop, plus the count of
// pins dropped as redundant. pins must already be sorted by SortPins.
func RunSafetyPass(pins []*Pin) (out []*Pin, redundant int) {
	st := newSafetyState()
	out = make([]*Pin, 0, len(pins))

	for _, p := range pins {
		nibble := p.StatusByte() & 0xF0

		switch {
		case nibble == statusNoteOff:
			if st.handleNoteOff(p) {
				out = append(out, p)
			} else {
				redundant++
			}

		case nibble == statusNoteOn:
			kept, synthetic := st.handleNoteOn(p)
			if synthetic != nil {
				out = append(out, synthetic)
			}
			if kept {
				out = append(out, p)
			} else {
				redundant++
			}

		case nibble == statusControlChange || nibble == statusPolyKeyPressure:
			if st.handleCCKP(p) {
				out = append(out, p)
			} else {
				redundant++
			}

		case nibble == statusPitchBend:
			if st.handlePitchBend(p) {
				out = append(out, p)
			} else {
				redundant++
			}

		case nibble == statusChannelPressure:
			if st.handleChannelPressure(p) {
				out = append(out, p)
			} else {
				redundant++
			}

		case nibble == statusProgramChange:
			out = append(out, p)

		case p.StatusByte() == statusClockTiming, p.StatusByte() == statusClockStart,
			p.StatusByte() == statusClockStop, p.StatusByte() == statusClockContinue:
			if st.handleClock(p) {
				out = append(out, p)
			} else {
				redundant++
			}

		case p.StatusByte() == statusSongPosition:
			if st.handleSongPointer(p) {
				out = append(out, p)
			} else {
				redundant++
			}

		default:
			// SysEx, Tune Request, Active Sensing, Reset: no
			// redundancy rule applies, pass through unchanged.
			out = append(out, p)
		}
	}

	if len(pins) > 0 {
		out = closeDangling(out, st, pins[len(pins)-1].TimeMS)
	}
	return out, redundant
}

func (st *safetyState) handleNoteOff(p *Pin) (keep bool) {
	key := noteKey{p.EndpointIndex, p.Channel(), p.Bytes[1]}
	entry, ok := st.notesOn[key]
	if !ok {
		return false
	}
	if entry.level == 1 {
		delete(st.notesOn, key)
		return true
	}
	entry.level--
	return false
}

// handleNoteOn returns whether p itself should be kept, and a
// synthetic Note-Off pin to insert immediately before p when a true
// duplicate re-triggers the stack (nil if none).
func (st *safetyState) handleNoteOn(p *Pin) (keep bool, synthetic *Pin) {
	key := noteKey{p.EndpointIndex, p.Channel(), p.Bytes[1]}
	velocity := p.Bytes[2]

	entry, ok := st.notesOn[key]
	if !ok {
		st.notesOn[key] = &noteOnEntry{pin: p, velocity: velocity, level: 1}
		p.Level = 1
		return true, nil
	}

	zeroCrossing := (entry.velocity == 0 && velocity > 0) || (entry.velocity > 0 && velocity == 0)
	if zeroCrossing {
		entry.velocity = velocity
		entry.pin = p
		p.Level = entry.level
		return true, nil
	}

	// True duplicate: stack another level and re-trigger at the
	// hardware level with a synthetic Note-Off immediately before it.
	entry.level++
	entry.velocity = velocity
	entry.pin = p
	p.Level = entry.level

	off := &Pin{
		TimeMS:        p.TimeMS,
		EndpointIndex: p.EndpointIndex,
		Bytes:         []byte{statusNoteOff | p.Channel(), p.Bytes[1], 0},
		Priority:      finalPriority(0x4, p.StatusByte()),
		Level:         1,
		inputOrder:    p.inputOrder,
	}
	return true, off
}

func (st *safetyState) handleCCKP(p *Pin) bool {
	key := ccKey{p.EndpointIndex, p.StatusByte(), p.Bytes[1]}
	last, ok := st.lastCCKP[key]
	if ok && last == p.Bytes[2] {
		return false
	}
	st.lastCCKP[key] = p.Bytes[2]
	return true
}

func (st *safetyState) handlePitchBend(p *Pin) bool {
	key := statusKey{p.EndpointIndex, p.StatusByte()}
	last, ok := st.lastBendCP[key]
	if ok && last[0] == p.Bytes[1] && last[1] == p.Bytes[2] {
		return false
	}
	st.lastBendCP[key] = [2]uint8{p.Bytes[1], p.Bytes[2]}
	return true
}

func (st *safetyState) handleChannelPressure(p *Pin) bool {
	key := statusKey{p.EndpointIndex, p.StatusByte()}
	last, ok := st.lastBendCP[key]
	if ok && last[0] == p.Bytes[1] {
		return false
	}
	st.lastBendCP[key] = [2]uint8{p.Bytes[1], 0}
	return true
}

// handleClock implements the per-endpoint running-clock state machine.
// It may rewrite p's status byte, the prior last-clock pin's status
// byte, or drop p outright; the return value reports whether p itself
// ends up kept.
func (st *safetyState) handleClock(p *Pin) bool {
	last := st.lastClock[p.EndpointIndex]
	incoming := p.StatusByte()

	if last == nil {
		// The first clock-family pin an endpoint ever sees is always
		// rewritten to Start, regardless of which one it actually was.
		p.Bytes[0] = statusClockStart
		st.lastClock[p.EndpointIndex] = p
		return true
	}

	if last.TimeMS == p.TimeMS {
		switch incoming {
		case statusClockTiming, statusClockStart:
			if last.StatusByte() == statusClockStop {
				last.Bytes[0] = statusClockTiming
			}
		case statusClockStop:
			last.Bytes[0] = statusClockStop
		case statusClockContinue:
			last.Bytes[0] = statusClockTiming
		}
		return false
	}

	// last was emitted at an earlier time.
	switch incoming {
	case statusClockTiming:
		if last.StatusByte() == statusClockStop {
			p.Bytes[0] = statusClockContinue
		}
		st.lastClock[p.EndpointIndex] = p
		return true

	case statusClockStart:
		if last.StatusByte() == statusClockStop {
			p.Bytes[0] = statusClockContinue
		} else {
			p.Bytes[0] = statusClockTiming
		}
		st.lastClock[p.EndpointIndex] = p
		return true

	case statusClockStop:
		if last.StatusByte() == statusClockStop {
			return false
		}
		st.lastClock[p.EndpointIndex] = p
		return true

	case statusClockContinue:
		if last.StatusByte() == statusClockStart || last.StatusByte() == statusClockContinue {
			p.Bytes[0] = statusClockTiming
		} else {
			last.Bytes[0] = statusClockStop
		}
		st.lastClock[p.EndpointIndex] = p
		return true
	}

	return true
}

func (st *safetyState) handleSongPointer(p *Pin) bool {
	last := st.lastSongPtr[p.EndpointIndex]
	if last != nil && last.TimeMS == p.TimeMS && last.Bytes[1] == p.Bytes[1] && last.Bytes[2] == p.Bytes[2] {
		return false
	}
	st.lastSongPtr[p.EndpointIndex] = p
	return true
}

// closeDangling appends the end-of-stream closure pins the pass needs:
// a Note-Off for every still-active Note-On, and a rewrite of any
// endpoint's running clock (Timing) to Stop. Both use lastTimeMS, the
// timestamp of the last pin in the original sorted walk — not the last
// pin surviving in out, since a trailing redundant pin (e.g. a
// stack-decrementing Note-Off that gets dropped rather than appended)
// would otherwise understate how long a note or clock was still active.
func closeDangling(out []*Pin, st *safetyState, lastTimeMS float64) []*Pin {
	for key, entry := range st.notesOn {
		out = append(out, &Pin{
			TimeMS:        lastTimeMS,
			EndpointIndex: key.endpointIndex,
			Bytes:         []byte{statusNoteOff | key.channel, key.key, entry.velocity},
			Priority:      finalPriority(0x4, statusNoteOff|key.channel),
			Level:         1,
			inputOrder:    entry.pin.inputOrder,
		})
	}

	for _, last := range st.lastClock {
		if last.StatusByte() == statusClockTiming {
			last.Bytes[0] = statusClockStop
		}
	}

	return out
}
