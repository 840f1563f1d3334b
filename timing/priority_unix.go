//go:build linux || darwin
// +build linux darwin

package timing

import (
	"os"

	"golang.org/x/sys/unix"
)

// raiseSchedulingPriority lowers the niceness value as far as the OS
// permits (Setpriority takes a lower value to mean higher priority)
// and, on Linux, additionally attempts to switch to the SCHED_RR
// real-time class. Both are best-effort: an unprivileged process will
// typically fail the nice(-20) attempt and always fails the
// SCHED_RR attempt, and both failures are swallowed.
func raiseSchedulingPriority() {
	_ = unix.Setpriority(unix.PRIO_PROCESS, os.Getpid(), -20)
	raiseRealtimeClass()
}

// disableBackgroundThrottling raises the process's CPU-time resource
// limit to its hard ceiling as a best-effort stand-in for an explicit
// "don't throttle me in the background" API, which neither Linux nor
// Darwin expose directly to an unprivileged Go process without cgo.
func disableBackgroundThrottling() {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_CPU, &rlim); err != nil {
		return
	}
	rlim.Cur = rlim.Max
	_ = unix.Setrlimit(unix.RLIMIT_CPU, &rlim)
}
