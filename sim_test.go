package tscns

import (
	"log/slog"
	"sync"
)

// simSource models a CPU whose counter advances at a settable rate against a
// controllable reference clock. Each reference read steps simulated time
// forward by one nanosecond so Init's busy-wait makes progress; the counter
// itself is derived from simulated time, so rate changes keep it continuous.
type simSource struct {
	mu      sync.Mutex
	ns      uint64
	rate    float64 // cycles per ns
	rateNS  uint64  // ns at the last rate change
	rateCyc float64 // cycles at the last rate change
	refOff  int64   // applied to reference reads only (clock-jump injection)
	dead    bool    // reference clock returns 0
}

func newSimSource(startNS uint64, rate float64) *simSource {
	return &simSource{ns: startNS, rate: rate, rateNS: startNS}
}

func (s *simSource) cycles() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(s.rateCyc + float64(s.ns-s.rateNS)*s.rate)
}

func (s *simSource) ref() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return 0
	}
	s.ns++
	return uint64(int64(s.ns) + s.refOff)
}

func (s *simSource) now() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(int64(s.ns) + s.refOff)
}

func (s *simSource) advance(d uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ns += d
}

func (s *simSource) setRate(r float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateCyc += float64(s.ns-s.rateNS) * s.rate
	s.rateNS = s.ns
	s.rate = r
}

func (s *simSource) setRefOffset(d int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refOff = d
}

func (s *simSource) setDead(dead bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead = dead
}

// newSimClock builds a Clock on simulated sources with logging discarded.
func newSimClock(src *simSource) *Clock {
	return &Clock{
		readTSC: src.cycles,
		readRef: src.ref,
		log:     slog.New(slog.DiscardHandler),
	}
}

// snapshotParams flattens every published field for bitwise comparison.
func snapshotParams(p *params) [6]uint64 {
	return [6]uint64{
		p.seq.Load(),
		p.baseTSC.Load(),
		p.baseNS.Load(),
		p.nsPerTSC.Load(),
		uint64(p.baseNSErr.Load()),
		p.nextCalibrateTSC.Load(),
	}
}
