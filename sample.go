package tscns

// maxSyncSamples bounds the sample arrays; large enough for the coarse-clock
// sample count.
const maxSyncSamples = 15

// syncTime produces one (cycle, ns) correspondence pair with minimal
// sampling jitter.
//
// It interleaves reference-clock and counter reads, then picks the pair of
// adjacent counter reads with the narrowest window between them: that is the
// pair least disturbed by scheduling and memory-bus noise, and its midpoint
// is the best estimate of the cycle count at the enclosed reference read.
func (c *Clock) syncTime() (tsc, ns uint64) {
	return c.syncTimeN(syncSamples, collapseEqualNS)
}

// syncTimeN is syncTime with the per-OS knobs explicit so tests can exercise
// the coarse-clock path anywhere.
//
// With collapse set, runs of equal reference readings (coarse-tick clocks
// step in plateaus) are compacted: the duplicate ns is dropped and the
// preceding counter read carried forward, so the window search only ever
// compares distinct reference values.
func (c *Clock) syncTimeN(n int, collapse bool) (tsc, ns uint64) {
	var tscs [maxSyncSamples + 1]uint64
	var nss [maxSyncSamples + 1]uint64

	tscs[0] = c.readTSC()
	for i := 1; i <= n; i++ {
		nss[i] = c.readRef()
		tscs[i] = c.readTSC()
	}

	j := n + 1
	if collapse {
		j = 1
		for i := 2; i <= n; i++ {
			if nss[i] == nss[i-1] {
				continue
			}
			tscs[j-1] = tscs[i-1]
			nss[j] = nss[i]
			j++
		}
		j--
	}

	best := 1
	for i := 2; i < j; i++ {
		if tscs[i]-tscs[i-1] < tscs[best]-tscs[best-1] {
			best = i
		}
	}

	return (tscs[best] + tscs[best-1]) >> 1, nss[best]
}
