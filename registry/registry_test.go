package registry

import "testing"

func TestResolveTriesCandidatesInOrder(t *testing.T) {
	r := &Registry{
		endpoints: []*Endpoint{
			{Index: 0, Name: "IAC Driver Bus 1"},
			{Index: 1, Name: "Roland UM-ONE"},
		},
	}

	for _, c := range []struct {
		name       string
		candidates []string
		wantIndex  int
		wantFound  bool
	}{
		{"first candidate matches", []string{"UM-ONE"}, 1, true},
		{"first candidate misses, second matches", []string{"Nope", "IAC"}, 0, true},
		{"nothing matches", []string{"Nope"}, 0, false},
		{"empty candidate list", nil, 0, false},
	} {
		t.Run(c.name, func(t *testing.T) {
			ep, found := r.Resolve(c.candidates)
			if found != c.wantFound {
				t.Fatalf("found = %v, want %v", found, c.wantFound)
			}
			if found && ep.Index != c.wantIndex {
				t.Errorf("resolved index = %d, want %d", ep.Index, c.wantIndex)
			}
		})
	}
}

func TestByIndexLooksUpByStableIndexNotPosition(t *testing.T) {
	epA := &Endpoint{Index: 2, Name: "A"}
	epB := &Endpoint{Index: 5, Name: "B"}
	r := &Registry{
		endpoints: []*Endpoint{epA, epB},
		byIndex:   map[int]*Endpoint{2: epA, 5: epB},
	}

	ep, ok := r.ByIndex(5)
	if !ok || ep != epB {
		t.Fatalf("ByIndex(5) = %v, %v, want epB, true", ep, ok)
	}
	if _, ok := r.ByIndex(3); ok {
		t.Errorf("ByIndex(3) found an endpoint that was never registered")
	}
}

func TestEndpointSendNoopsUntilOpened(t *testing.T) {
	e := &Endpoint{Index: 0, Name: "test"}
	if err := e.Send([]byte{0x90, 60, 100}); err != nil {
		t.Fatalf("Send on unopened endpoint returned error: %v", err)
	}
	if e.Opened() {
		t.Errorf("endpoint reports opened without ever calling Open")
	}
}
