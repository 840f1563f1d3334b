package logging

import "testing"

func TestNewBuildsALogger(t *testing.T) {
	for _, verbose := range []bool{true, false} {
		log, err := New(verbose)
		if err != nil {
			t.Fatalf("New(%v) returned error: %v", verbose, err)
		}
		if log == nil {
			t.Fatalf("New(%v) returned a nil logger", verbose)
		}
		// Sync() on a console-backed logger can return a spurious
		// error on some platforms (e.g. syncing a non-syncable stdout);
		// not asserted on here.
		_ = log.Sync()
	}
}
