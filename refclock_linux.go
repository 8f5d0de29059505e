//go:build linux

package tscns

import "golang.org/x/sys/unix"

// readSysNanos returns the OS wall clock in nanoseconds since the Unix
// epoch, via clock_gettime(CLOCK_REALTIME) directly rather than through
// time.Now (no time.Time construction on a path the calibrator samples in a
// tight interleave).
//
// Errors are coerced to 0; callers treat 0 as "no reading" and never let it
// seed calibration.
func readSysNanos() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err != nil {
		return 0
	}
	return uint64(ts.Nano())
}
