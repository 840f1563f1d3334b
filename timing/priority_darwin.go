//go:build darwin
// +build darwin

package timing

// raiseRealtimeClass is a no-op on Darwin: the real-time thread policy
// (THREAD_TIME_CONSTRAINT_POLICY) is only reachable through Mach APIs
// that Go cannot call without cgo. The niceness adjustment in
// raiseSchedulingPriority is the best-effort substitute on this
// platform; failure here is non-fatal.
func raiseRealtimeClass() {}
