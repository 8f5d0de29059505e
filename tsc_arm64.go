//go:build arm64

package tscns

// readCycles reads the virtual counter-timer (CNTVCT_EL0), a fixed-frequency
// counter shared by all cores.
// Implemented in tsc_arm64.s
func readCycles() uint64

// tscSupported reports whether a hardware cycle counter backs readCycles.
const tscSupported = true
