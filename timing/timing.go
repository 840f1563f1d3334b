// Package timing provides the cross-platform real-time scheduling
// request, background-throttling disable, and high-resolution sleep
// primitives the playback loop depends on.
package timing

import "time"

// longSleepThreshold is the point above which HighResSleep delegates
// part of the wait to the ordinary OS sleep and busy-waits only the
// last stretch.
const longSleepThreshold = 100 * time.Millisecond

// RaiseSchedulingPriority attempts to raise the calling process to the
// highest real-time scheduling class the OS exposes. Failure is
// non-fatal: the process proceeds at its current priority.
func RaiseSchedulingPriority() {
	raiseSchedulingPriority()
}

// DisableBackgroundThrottling asks the OS not to throttle this process
// when it is backgrounded. Failure is non-fatal.
func DisableBackgroundThrottling() {
	disableBackgroundThrottling()
}

// HighResSleep blocks for approximately d. Durations over 100ms sleep
// the bulk of the wait with the ordinary OS sleep (1-16ms granularity
// on common platforms) and busy-wait the last 100ms against the
// highest-resolution monotonic clock available; durations at or under
// 100ms busy-wait the whole span. This trades CPU for sub-millisecond
// fidelity only on the part of the wait that needs it.
func HighResSleep(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	if d > longSleepThreshold {
		time.Sleep(d - longSleepThreshold)
	}
	for time.Now().Before(deadline) {
		// busy-wait tail
	}
}
