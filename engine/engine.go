// Package engine implements the playback engine at the center of this
// system: the pre-processing pipeline that validates and normalizes
// MIDI events from an input document tree, sorts and scrubs them into
// a safe dispatch stream, and drives the high-resolution timing loop
// that emits them to their bound endpoints.
package engine

import (
	"time"

	"go.uber.org/zap"

	"jsonmidiplayer/document"
	"jsonmidiplayer/registry"
	"jsonmidiplayer/timing"
)

// teardownDelay is the pause held after the last pin is dispatched and
// before endpoints close, to avoid abrupt device disconnection.
const teardownDelay = 500 * time.Millisecond

// PlayList runs one complete pipeline pass: ingest, sort, safety pass,
// playback. Endpoints are closed on every exit path, including error
// returns — resource lifetime is scoped to one PlayList call.
func PlayList(reg *registry.Registry, files []document.File, log *zap.Logger) (Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}

	timing.RaiseSchedulingPriority()
	timing.DisableBackgroundThrottling()

	defer func() {
		time.Sleep(teardownDelay)
		if err := reg.Close(); err != nil {
			log.Warn("error closing endpoints", zap.Error(err))
		}
	}()

	preStart := time.Now()

	pins, excluded := IngestFiles(reg, files, log)
	excluded += openBoundEndpoints(reg, pins, log)
	pins = dropUnopenedEndpoints(pins, reg)

	SortPins(pins)

	pins, redundant := RunSafetyPass(pins)

	stats := Stats{
		PreProcessingMS: durationMS(time.Since(preStart)),
		TotalExcluded:   excluded,
		TotalRedundant:  redundant,
	}

	RunPlaybackLoop(reg, pins, &stats)

	log.Info("playback complete",
		zap.Int("total_processed", stats.TotalProcessed),
		zap.Int("total_redundant", stats.TotalRedundant),
		zap.Int("total_excluded", stats.TotalExcluded),
		zap.Float64("total_drag_ms", stats.TotalDragMS))

	return stats, nil
}

// openBoundEndpoints opens, once each, every distinct endpoint that
// has at least one admitted pin, and returns how many pins are bound
// to an endpoint that failed to open — those pins will not be admitted
// to the playback loop.
func openBoundEndpoints(reg *registry.Registry, pins []*Pin, log *zap.Logger) int {
	seen := make(map[int]bool)
	for _, p := range pins {
		if seen[p.EndpointIndex] {
			continue
		}
		seen[p.EndpointIndex] = true
		if ep, ok := reg.ByIndex(p.EndpointIndex); ok {
			if err := ep.Open(); err != nil {
				log.Debug("endpoint failed to open, its pins will be excluded",
					zap.Int("endpoint_index", p.EndpointIndex), zap.Error(err))
			}
		}
	}

	failed := 0
	for _, p := range pins {
		if ep, ok := reg.ByIndex(p.EndpointIndex); !ok || !ep.Opened() {
			failed++
		}
	}
	return failed
}

func dropUnopenedEndpoints(pins []*Pin, reg *registry.Registry) []*Pin {
	out := pins[:0]
	for _, p := range pins {
		if ep, ok := reg.ByIndex(p.EndpointIndex); ok && ep.Opened() {
			out = append(out, p)
		}
	}
	return out
}
