//go:build windows

package tscns

// The Windows reference clock ticks coarsely, so it takes more samples to
// step past equal-ns plateaus, and the plateaus themselves are compacted
// before the window search.
const (
	syncSamples     = 15
	collapseEqualNS = true
)
