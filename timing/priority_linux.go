//go:build linux
// +build linux

package timing

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// schedParam mirrors struct sched_param from <sched.h>; x/sys/unix
// does not expose sched_setscheduler directly, so we go through
// unix.Syscall the way golang.org/x/sys/unix itself implements
// similarly-uncovered syscalls.
type schedParam struct {
	Priority int32
}

// raiseRealtimeClass attempts to switch the calling process to the
// SCHED_RR real-time scheduling class at its minimum real-time
// priority. This requires CAP_SYS_NICE or root; an unprivileged
// process will simply fail, and that failure is swallowed.
func raiseRealtimeClass() {
	param := schedParam{Priority: 1}
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER,
		uintptr(os.Getpid()),
		uintptr(unix.SCHED_RR),
		uintptr(unsafe.Pointer(&param)))
	_ = errno // non-fatal regardless of outcome
}
