// Package tscns provides a nanosecond-resolution wall clock whose read path
// is cheaper than any system-call-based clock.
//
// Instead of asking the OS for the time, ReadNanos reads the CPU's cycle
// counter (RDTSC on amd64, CNTVCT_EL0 on arm64, RDTIME on riscv64) and
// converts cycles to nanoseconds through a linear model that a background
// caller periodically re-fits against the OS clock. The design is a port of
// Meng Rao's tscns.
//
// Typical performance:
//   - time.Now().UnixNano(): ~30-60ns
//   - ReadNanos(): ~5-10ns (a counter read, a seqlock-guarded load of the
//     calibration tuple and a multiply)
//
// Usage:
//
//	tscns.Init(tscns.InitCalibrateNanos, tscns.CalibrateIntervalNanos)
//	go tscns.Run(ctx) // background drift correction
//	ns := tscns.ReadNanos()
//
// The conversion parameters are published through a seqlock, so readers are
// wait-free and never observe a half-committed calibration. Calibrate is
// meant for a single dedicated caller; Run provides one.
//
// The clock is only as monotonic as the underlying cycle counter. On
// hardware without an invariant TSC, or across sockets with unsynchronized
// counters, the caller is responsible for pinning.
package tscns

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"time"
)

const (
	// InitCalibrateNanos is the default sampling window for Init: long
	// enough for a two-point slope fit with sub-ppm resolution, short
	// enough not to annoy program startup.
	InitCalibrateNanos uint64 = 20_000_000

	// CalibrateIntervalNanos is the default recalibration period.
	CalibrateIntervalNanos uint64 = 3_000_000_000
)

// calibrateSlackNanos backs the next calibration deadline off the interval
// boundary so round-down in the cycle conversion cannot leave the deadline
// exactly on it.
const calibrateSlackNanos = 1000

// Clock converts CPU cycle counts to wall-clock nanoseconds.
//
// ReadNanos is safe for concurrent use by any number of goroutines.
// Init must complete before the first ReadNanos. Calibrate expects a single
// dedicated caller (concurrent calls are memory-safe, but the resulting
// slope is whatever the last writer computed).
type Clock struct {
	params params

	// Counter and reference clock reads, swappable in tests.
	readTSC func() uint64
	readRef func() uint64

	log *slog.Logger
}

// New returns a Clock backed by the hardware cycle counter (or the OS clock
// on architectures without one). The clock is unusable until Init is called.
func New() *Clock {
	return &Clock{
		readTSC: readCycles,
		readRef: readSysNanos,
		log:     slog.Default(),
	}
}

// Init seeds the conversion model with a two-point slope fit: one sample
// pair now, one after initCalibrateNS of wall time, slope = Δns/Δcycles.
// It busy-waits (cooperatively yielding) for the sampling window.
//
// Samples with an unreadable reference clock are discarded and the fit is
// retried, so Init does not return with an invalid model.
func (c *Clock) Init(initCalibrateNS, calibrateIntervalNS uint64) {
	c.params.calibrateIntervalNS.Store(calibrateIntervalNS)

	for {
		baseTSC, baseNS := c.syncTime()
		if baseNS == 0 {
			runtime.Gosched()
			continue
		}

		expire := baseNS + initCalibrateNS
		valid := true
		for {
			now := c.readRef()
			if now == 0 {
				valid = false
				break
			}
			if now >= expire {
				break
			}
			runtime.Gosched()
		}
		if !valid {
			continue
		}

		delayedTSC, delayedNS := c.syncTime()
		if delayedNS <= baseNS || delayedTSC <= baseTSC {
			continue
		}

		nsPerTSC := float64(delayedNS-baseNS) / float64(delayedTSC-baseTSC)
		c.params.save(baseTSC, baseNS, 0, nsPerTSC)
		return
	}
}

// ReadNanos returns the current wall-clock time in nanoseconds since the
// reference clock's epoch.
//
// Wait-free: the only loop is the seqlock retry, which fires roughly once
// per calibration interval across all readers combined.
func (c *Clock) ReadNanos() uint64 {
	return c.toNanos(c.readTSC())
}

// toNanos converts a cycle count through the current model.
func (c *Clock) toNanos(tsc uint64) uint64 {
	baseTSC, baseNS, nsPerTSC := c.params.snapshot()
	return baseNS + uint64(float64(tsc-baseTSC)*nsPerTSC)
}

// Calibrate re-fits the slope against the reference clock if a calibration
// is due, otherwise returns immediately.
//
// The correction is a first-order predictor: extrapolate how large the
// conversion error will be at the next calibration instant from how fast it
// grew since the last one, then scale the slope so that predicted error
// cancels. The committed base is the model's own prediction rather than the
// raw reference reading, which keeps ReadNanos monotonic across commits.
func (c *Clock) Calibrate() {
	if c.readTSC() < c.params.nextCalibrateTSC.Load() {
		return
	}

	tsc, sysNS := c.syncTime()
	if sysNS == 0 {
		c.log.Warn("tscns: reference clock unreadable, skipping calibration")
		return
	}

	predictedNS := c.toNanos(tsc)

	// Signed on purpose: the model can run behind the reference as well as
	// ahead, and a behind-model must speed the slope up, not be clamped to
	// "no error".
	nsErr := int64(predictedNS) - int64(sysNS)

	baseNS := c.params.baseNS.Load()
	baseNSErr := c.params.baseNSErr.Load()

	// Time covered by this pass, as the reference clock saw it. Non-positive
	// means the OS clock jumped backwards past the last base; nothing sane
	// can be fitted from that, so leave the slope alone.
	elapsed := int64(sysNS) - int64(baseNS) + baseNSErr
	if elapsed <= 0 {
		c.log.Warn("tscns: reference clock went backwards, skipping calibration")
		return
	}

	interval := int64(c.params.calibrateIntervalNS.Load())
	expectedErrNext := nsErr + (nsErr-baseNSErr)*interval/elapsed

	nsPerTSC := math.Float64frombits(c.params.nsPerTSC.Load())
	newNsPerTSC := nsPerTSC * (1.0 - float64(expectedErrNext)/float64(interval))

	c.params.save(tsc, predictedNS, nsErr, newNsPerTSC)
}

// TSCGHz returns the calibrated counter frequency in GHz (1/nsPerTSC).
// The read is a single unsynchronized load; treat it as an approximation.
// On architectures without a cycle counter this reports 1.0.
func (c *Clock) TSCGHz() float64 {
	if !tscSupported {
		return 1.0
	}
	return 1.0 / math.Float64frombits(c.params.nsPerTSC.Load())
}

// Run calibrates once per calibration interval until ctx is done.
// Call Init first; start Run on its own goroutine.
func (c *Clock) Run(ctx context.Context) {
	t := time.NewTicker(time.Duration(c.params.calibrateIntervalNS.Load()))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Calibrate()
		}
	}
}

// std is the process-wide clock behind the package-level functions, created
// once at package initialization.
var std = New()

// Init seeds the package-level clock. See Clock.Init.
func Init(initCalibrateNS, calibrateIntervalNS uint64) {
	std.Init(initCalibrateNS, calibrateIntervalNS)
}

// ReadNanos reads the package-level clock. See Clock.ReadNanos.
func ReadNanos() uint64 {
	return std.ReadNanos()
}

// Calibrate re-fits the package-level clock. See Clock.Calibrate.
func Calibrate() {
	std.Calibrate()
}

// TSCGHz reports the package-level clock's counter frequency in GHz.
func TSCGHz() float64 {
	return std.TSCGHz()
}

// Run drives background calibration of the package-level clock.
func Run(ctx context.Context) {
	std.Run(ctx)
}
