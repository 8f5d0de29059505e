//go:build !windows

package tscns

// Unix-like reference clocks advance every read; three samples are enough
// for the window search.
const (
	syncSamples     = 3
	collapseEqualNS = false
)
