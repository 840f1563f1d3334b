//go:build !linux && !darwin
// +build !linux,!darwin

package timing

// raiseSchedulingPriority and disableBackgroundThrottling are no-ops
// on platforms without a golang.org/x/sys/unix binding. Both are
// documented as non-fatal; callers never check a return value.
func raiseSchedulingPriority()     {}
func disableBackgroundThrottling() {}
