package engine

import (
	"math"
	"runtime"
	"time"

	"jsonmidiplayer/registry"
	"jsonmidiplayer/timing"
)

// dragThresholdMS is one MIDI-clock tick at 120 BPM: 1000 / ((120/60) * 24).
// Delay beyond this is absorbed into total_drag_ms rather than left to
// accumulate as unbounded lag.
const dragThresholdMS = 1000.0 / ((120.0 / 60.0) * 24.0)

// RunPlaybackLoop dispatches pins, already sorted and safety-passed, to
// their bound endpoints with high-resolution timing. It pins the
// calling goroutine to its OS thread for the loop's duration, since the
// busy-wait tail in timing.HighResSleep depends on not being preempted
// onto another thread mid-spin.
func RunPlaybackLoop(reg *registry.Registry, pins []*Pin, stats *Stats) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	start := time.Now()
	totalDragMS := 0.0

	for _, p := range pins {
		targetUS := math.Round((p.TimeMS + totalDragMS) * 1000)
		elapsedUS := float64(time.Since(start).Microseconds())
		sleepUS := targetUS - elapsedUS
		if sleepUS < 0 {
			sleepUS = 0
		}
		timing.HighResSleep(time.Duration(sleepUS) * time.Microsecond)

		ep, ok := reg.ByIndex(p.EndpointIndex)
		if ok {
			_ = ep.Send(p.Bytes)
		}

		pluckTimeUS := float64(time.Since(start).Microseconds())
		delayMS := (pluckTimeUS - targetUS) / 1000
		p.DelayMS = delayMS

		stats.TotalProcessed++
		stats.observeDelay(delayMS)

		if delayMS > dragThresholdMS {
			totalDragMS += delayMS - dragThresholdMS
		}
	}

	stats.TotalDragMS = totalDragMS
}
