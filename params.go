package tscns

import (
	"math"
	"sync/atomic"
)

// params holds the calibration tuple behind a seqlock.
//
// seq is even in steady state; odd means a commit is in flight. Readers
// retry on odd or changed seq, so they either see one committed calibration
// or an earlier one, never a mix. The tuple fields are individual 64-bit
// atomics, so no single load can tear either.
//
// Single-writer: only the calibrator commits, and save does not serialize
// writers itself. The nextCalibrateTSC gate in Calibrate only turns away
// callers that arrive before the deadline; two callers past it both commit.
type params struct {
	seq atomic.Uint64

	// Keep the seq counter on its own cache line so reader retries don't
	// false-share with the tuple stores.
	_pad [56]byte //nolint:unused

	baseTSC          atomic.Uint64
	baseNS           atomic.Uint64
	nsPerTSC         atomic.Uint64 // float64 bits
	baseNSErr        atomic.Int64
	nextCalibrateTSC atomic.Uint64

	calibrateIntervalNS atomic.Uint64
}

// save commits a new calibration: seq goes odd, the tuple is written exactly
// once, seq goes even. nextCalibrateTSC is derived here so every commit
// moves the calibration deadline forward.
func (p *params) save(baseTSC, baseNS uint64, baseNSErr int64, nsPerTSC float64) {
	interval := p.calibrateIntervalNS.Load()
	next := baseTSC + uint64(float64(interval-calibrateSlackNanos)/nsPerTSC)

	seq := p.seq.Load()
	p.seq.Store(seq + 1)

	p.baseTSC.Store(baseTSC)
	p.baseNS.Store(baseNS)
	p.nsPerTSC.Store(math.Float64bits(nsPerTSC))
	p.baseNSErr.Store(baseNSErr)
	p.nextCalibrateTSC.Store(next)

	p.seq.Store(seq + 2)
}

// snapshot returns a consistent (baseTSC, baseNS, nsPerTSC) triple.
func (p *params) snapshot() (baseTSC, baseNS uint64, nsPerTSC float64) {
	for {
		seq := p.seq.Load()
		if seq&1 != 0 {
			continue
		}

		baseTSC = p.baseTSC.Load()
		baseNS = p.baseNS.Load()
		nsPerTSC = math.Float64frombits(p.nsPerTSC.Load())

		if p.seq.Load() == seq {
			return
		}
	}
}
