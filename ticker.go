package tscns

import (
	"sync/atomic"
	"time"
)

// Ticker is a polling interval trigger driven by the calibrated clock.
//
// Unlike time.Ticker there is no channel and no runtime timer: Tick is a
// clock read, an atomic load and a compare. That makes it suitable for
// hot loops that want a cheap "has the interval elapsed?" check — including
// a loop that drives Calibrate itself.
//
// Safe for concurrent use; the CAS ensures only one caller observes any
// given tick.
type Ticker struct {
	clock      *Clock
	intervalNS uint64
	last       atomic.Uint64
}

// NewTicker creates a Ticker on c with the specified interval.
// The clock must be initialized.
func (c *Clock) NewTicker(interval time.Duration) *Ticker {
	t := &Ticker{
		clock:      c,
		intervalNS: uint64(interval.Nanoseconds()),
	}
	t.last.Store(c.ReadNanos())
	return t
}

// NewTicker creates a Ticker on the package-level clock.
func NewTicker(interval time.Duration) *Ticker {
	return std.NewTicker(interval)
}

// Tick returns true if the interval has elapsed since the last tick.
// This is a non-blocking check.
func (t *Ticker) Tick() bool {
	now := t.clock.ReadNanos()
	last := t.last.Load()

	if now-last >= t.intervalNS {
		// CAS to prevent multiple triggers
		if t.last.CompareAndSwap(last, now) {
			return true
		}
	}
	return false
}

// Reset resets the ticker to start a new interval from now.
func (t *Ticker) Reset() {
	t.last.Store(t.clock.ReadNanos())
}

// Stop is a no-op for Ticker (no resources to release).
func (t *Ticker) Stop() {}

// Interval returns the ticker's interval.
func (t *Ticker) Interval() time.Duration {
	return time.Duration(t.intervalNS)
}
