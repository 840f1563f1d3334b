package document

import "testing"

func TestWellFormed(t *testing.T) {
	for _, c := range []struct {
		name string
		file File
		want bool
	}{
		{"matches both sentinels", File{FileType: FileTypeSentinel, URL: URLSentinel}, true},
		{"wrong filetype", File{FileType: "Something Else", URL: URLSentinel}, false},
		{"wrong url", File{FileType: FileTypeSentinel, URL: "https://example.com"}, false},
		{"zero value", File{}, false},
	} {
		t.Run(c.name, func(t *testing.T) {
			if got := c.file.WellFormed(); got != c.want {
				t.Errorf("WellFormed() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestElementShapeDisambiguation(t *testing.T) {
	zero := 0.0
	devices := Element{Devices: []string{"Synth"}}
	if !devices.IsDevices() || devices.IsMessage() {
		t.Errorf("devices directive misclassified: IsDevices=%v IsMessage=%v", devices.IsDevices(), devices.IsMessage())
	}

	message := Element{TimeMS: &zero, MIDIMessage: &MIDIMessage{StatusByte: 0x90}}
	if message.IsDevices() || !message.IsMessage() {
		t.Errorf("message entry misclassified: IsDevices=%v IsMessage=%v", message.IsDevices(), message.IsMessage())
	}

	// time_ms = 0 is a legal timestamp and must not be mistaken for a
	// missing one.
	if message.TimeMS == nil || *message.TimeMS != 0 {
		t.Errorf("zero time_ms lost its value")
	}
}
