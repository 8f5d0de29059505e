//go:build !linux

package tscns

import "time"

// readSysNanos returns the OS wall clock in nanoseconds since the Unix
// epoch. Errors (a pre-1970 or otherwise broken clock) are coerced to 0;
// callers treat 0 as "no reading".
func readSysNanos() uint64 {
	ns := time.Now().UnixNano()
	if ns <= 0 {
		return 0
	}
	return uint64(ns)
}
