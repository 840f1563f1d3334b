package engine

import (
	"math"
	"time"

	"golang.org/x/exp/constraints"
)

// Stats accumulates the counters and delay statistics of one playback
// run: pre-processing duration, processed/redundant/excluded counts,
// total drag, and min/max/mean/stddev of per-pin delay.
type Stats struct {
	PreProcessingMS float64
	TotalProcessed  int
	TotalRedundant  int
	TotalExcluded   int
	TotalDragMS     float64

	DelayTotalMS  float64
	DelayMinMS    float64
	DelayMaxMS    float64
	DelayMeanMS   float64
	DelayStdDevMS float64

	delayCount int
	delaySumSq float64
}

// observeDelay folds one pin's measured delay into the running
// statistics. minOf/maxOf are written generically over
// constraints.Ordered even though delay itself is always float64, so
// the same helpers serve integer-millisecond test fixtures too.
func (s *Stats) observeDelay(delayMS float64) {
	if s.delayCount == 0 {
		s.DelayMinMS = delayMS
		s.DelayMaxMS = delayMS
	} else {
		s.DelayMinMS = minOf(s.DelayMinMS, delayMS)
		s.DelayMaxMS = maxOf(s.DelayMaxMS, delayMS)
	}
	s.delayCount++
	s.DelayTotalMS += delayMS
	s.delaySumSq += delayMS * delayMS
	s.DelayMeanMS = s.DelayTotalMS / float64(s.delayCount)

	if s.delayCount > 1 {
		variance := s.delaySumSq/float64(s.delayCount) - s.DelayMeanMS*s.DelayMeanMS
		if variance < 0 {
			variance = 0 // guards against floating-point cancellation
		}
		s.DelayStdDevMS = math.Sqrt(variance)
	}
}

func minOf[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func maxOf[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// durationMS converts a time.Duration to a float millisecond count.
func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
