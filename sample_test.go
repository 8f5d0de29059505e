package tscns

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClock returns a Clock whose counter advances tscStep per read and
// whose reference clock replays the given values (holding the last one).
func scriptedClock(tscStep uint64, refs []uint64) *Clock {
	var tsc uint64
	i := 0
	return &Clock{
		readTSC: func() uint64 {
			tsc += tscStep
			return tsc
		},
		readRef: func() uint64 {
			if i < len(refs) {
				i++
			}
			return refs[i-1]
		},
		log: slog.New(slog.DiscardHandler),
	}
}

// Coarse-tick reference clocks (Windows) return the same ns for runs of
// samples. With 15 samples and plateau collapse, the sampler must still find
// distinct reference values and produce a finite window.
func TestSyncTime_CollapsesCoarseClockPlateaus(t *testing.T) {
	refs := make([]uint64, 0, 15)
	for _, plateau := range []uint64{1000, 2000, 3000} {
		for i := 0; i < 5; i++ {
			refs = append(refs, plateau)
		}
	}

	c := scriptedClock(10, refs)
	tsc, ns := c.syncTimeN(15, true)

	require.NotZero(t, ns, "a coarse clock must still yield a usable sample")
	assert.Contains(t, []uint64{1000, 2000, 3000}, ns)
	assert.Greater(t, tsc, uint64(0))
	assert.LessOrEqual(t, tsc, uint64(16*10), "midpoint must lie inside the observed counter range")
}

// Ten identical readings then one step: the longest plateau the coarse-clock
// scenario allows. One distinct transition is enough to sample.
func TestSyncTime_SingleTransition(t *testing.T) {
	refs := make([]uint64, 15)
	for i := range refs {
		refs[i] = 5000
	}
	for i := 10; i < 15; i++ {
		refs[i] = 6000
	}

	c := scriptedClock(10, refs)
	_, ns := c.syncTimeN(15, true)
	require.NotZero(t, ns)
	assert.Contains(t, []uint64{5000, 6000}, ns)
}

// A small backwards jump of the reference mid-sample must not panic or
// produce a zero sample; the window search still picks an adjacent pair.
func TestSyncTime_ReferenceJumpsBackwardsMidSample(t *testing.T) {
	refs := []uint64{5_000_000, 5_001_000, 4_000_500} // 1ms dip on the last read
	c := scriptedClock(10, refs)

	tsc, ns := c.syncTimeN(3, false)
	require.NotZero(t, ns)
	assert.Contains(t, refs, ns)
	assert.Greater(t, tsc, uint64(0))
}

// The narrowest counter window wins; the result is its midpoint and the
// reference read taken inside it.
func TestSyncTime_PicksMinimumWindow(t *testing.T) {
	// Make the last window the narrowest: counter steps of 100 except
	// between reads 2 and 3.
	var reads int
	tscVals := []uint64{100, 200, 300, 310, 410}
	refVals := []uint64{0, 1000, 2000, 3000, 4000}
	var refReads int

	c := &Clock{
		readTSC: func() uint64 {
			v := tscVals[reads]
			reads++
			return v
		},
		readRef: func() uint64 {
			refReads++
			return refVals[refReads]
		},
		log: slog.New(slog.DiscardHandler),
	}

	tsc, ns := c.syncTimeN(3, false)
	assert.Equal(t, uint64(3000), ns, "the narrowest window encloses the third reference read")
	assert.Equal(t, uint64((300+310)/2), tsc)
}
