//go:build amd64

package tscns

// readCycles reads the CPU's Time Stamp Counter.
// Implemented in tsc_amd64.s
//
// No serializing fence: the jitter a reordered RDTSC can introduce inside a
// calibration sample is handled statistically by the minimum-window search
// in syncTime.
func readCycles() uint64

// tscSupported reports whether a hardware cycle counter backs readCycles.
const tscSupported = true
