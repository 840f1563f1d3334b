package engine

import (
	"testing"

	"jsonmidiplayer/document"
	"jsonmidiplayer/registry"
)

func u8(v uint8) *uint8 { return &v }
func f64(v float64) *float64 { return &v }

func TestAssembleMessageChannelVoice(t *testing.T) {
	for _, c := range []struct {
		name     string
		msg      document.MIDIMessage
		wantLen  int
		wantByte []byte
		priority uint8
		reject   RejectReason
	}{
		{
			name:     "note on",
			msg:      document.MIDIMessage{StatusByte: 0x91, DataByte1: u8(60), DataByte2: u8(100)},
			wantByte: []byte{0x91, 60, 100},
			priority: finalPriority(0x5, 0x91),
		},
		{
			name:     "note off",
			msg:      document.MIDIMessage{StatusByte: 0x81, DataByte1: u8(60), DataByte2: u8(0)},
			wantByte: []byte{0x81, 60, 0},
			priority: finalPriority(0x4, 0x81),
		},
		{
			name:     "control change bank select",
			msg:      document.MIDIMessage{StatusByte: 0xB0, DataByte1: u8(0), DataByte2: u8(2)},
			wantByte: []byte{0xB0, 0, 2},
			priority: finalPriority(0x0, 0xB0),
		},
		{
			name:     "control change modulation",
			msg:      document.MIDIMessage{StatusByte: 0xB0, DataByte1: u8(1), DataByte2: u8(64)},
			wantByte: []byte{0xB0, 1, 64},
			priority: finalPriority(0x6, 0xB0),
		},
		{
			name:     "control change other",
			msg:      document.MIDIMessage{StatusByte: 0xB0, DataByte1: u8(7), DataByte2: u8(64)},
			wantByte: []byte{0xB0, 7, 64},
			priority: finalPriority(0x2, 0xB0),
		},
		{
			name:     "program change",
			msg:      document.MIDIMessage{StatusByte: 0xC0, DataByte: u8(5)},
			wantByte: []byte{0xC0, 5},
			priority: finalPriority(0x1, 0xC0),
		},
		{
			name:     "pitch bend",
			msg:      document.MIDIMessage{StatusByte: 0xE0, DataByte1: u8(0), DataByte2: u8(64)},
			wantByte: []byte{0xE0, 0, 64},
			priority: finalPriority(0x7, 0xE0),
		},
		{
			name:   "data byte out of range",
			msg:    document.MIDIMessage{StatusByte: 0x90, DataByte1: u8(60), DataByte2: u8(200)},
			reject: RejectDataByteRange,
		},
		{
			name:   "missing data bytes",
			msg:    document.MIDIMessage{StatusByte: 0x90, DataByte1: u8(60)},
			reject: RejectDataByteRange,
		},
	} {
		t.Run(c.name, func(t *testing.T) {
			bytes, priority, reason := assembleMessage(c.msg)
			if reason != c.reject {
				t.Fatalf("reason = %v, want %v", reason, c.reject)
			}
			if reason != RejectNone {
				return
			}
			if string(bytes) != string(c.wantByte) {
				t.Errorf("bytes = %v, want %v", bytes, c.wantByte)
			}
			if priority != c.priority {
				t.Errorf("priority = %#x, want %#x", priority, c.priority)
			}
		})
	}
}

func TestAssembleSystemMessages(t *testing.T) {
	for _, c := range []struct {
		name   string
		msg    document.MIDIMessage
		status uint8
		reject RejectReason
		want   []byte
	}{
		{
			name:   "sysex",
			status: 0xF0,
			msg:    document.MIDIMessage{StatusByte: 0xF0, DataBytes: []uint8{1, 2, 3}},
			want:   []byte{0xF0, 1, 2, 3, 0xF7},
		},
		{
			name:   "sysex empty is malformed",
			status: 0xF0,
			msg:    document.MIDIMessage{StatusByte: 0xF0},
			reject: RejectMalformedSysEx,
		},
		{
			name:   "song position",
			status: 0xF2,
			msg:    document.MIDIMessage{StatusByte: 0xF2, DataByte1: u8(1), DataByte2: u8(2)},
			want:   []byte{0xF2, 1, 2},
		},
		{
			name:   "tune request",
			status: 0xF6,
			msg:    document.MIDIMessage{StatusByte: 0xF6},
			want:   []byte{0xF6},
		},
		{
			name:   "clock timing",
			status: 0xF8,
			msg:    document.MIDIMessage{StatusByte: 0xF8},
			want:   []byte{0xF8},
		},
	} {
		t.Run(c.name, func(t *testing.T) {
			bytes, _, reason := assembleSystemMessage(c.status, c.msg)
			if reason != c.reject {
				t.Fatalf("reason = %v, want %v", reason, c.reject)
			}
			if reason == RejectNone && string(bytes) != string(c.want) {
				t.Errorf("bytes = %v, want %v", bytes, c.want)
			}
		})
	}
}

func TestIngestOneMessageRejectsNegativeTime(t *testing.T) {
	ep := &registry.Endpoint{Index: 0}
	el := document.Element{
		TimeMS:      f64(-1),
		MIDIMessage: &document.MIDIMessage{StatusByte: 0x90, DataByte1: u8(60), DataByte2: u8(100)},
	}
	pin, reason := ingestOneMessage(el, ep, 0)
	if pin != nil || reason != RejectNegativeTime {
		t.Fatalf("got pin=%v reason=%v, want nil/RejectNegativeTime", pin, reason)
	}
}

func TestIngestOneMessageRejectsUnresolvedEndpoint(t *testing.T) {
	el := document.Element{
		TimeMS:      f64(0),
		MIDIMessage: &document.MIDIMessage{StatusByte: 0x90, DataByte1: u8(60), DataByte2: u8(100)},
	}
	pin, reason := ingestOneMessage(el, nil, 0)
	if pin != nil || reason != RejectUnresolvedEndpoint {
		t.Fatalf("got pin=%v reason=%v, want nil/RejectUnresolvedEndpoint", pin, reason)
	}
}

func TestIngestOneMessageAdmitsValidEntry(t *testing.T) {
	ep := &registry.Endpoint{Index: 2}
	el := document.Element{
		TimeMS:      f64(123.5),
		MIDIMessage: &document.MIDIMessage{StatusByte: 0x91, DataByte1: u8(64), DataByte2: u8(90)},
	}
	pin, reason := ingestOneMessage(el, ep, 7)
	if reason != RejectNone || pin == nil {
		t.Fatalf("got pin=%v reason=%v, want an admitted pin", pin, reason)
	}
	if pin.TimeMS != 123.5 || pin.EndpointIndex != 2 || pin.inputOrder != 7 {
		t.Errorf("pin fields wrong: %+v", pin)
	}
}
