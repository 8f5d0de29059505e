//go:build riscv64

package tscns

// readCycles reads the time CSR, a fixed-frequency counter.
// Implemented in tsc_riscv64.s
func readCycles() uint64

// tscSupported reports whether a hardware cycle counter backs readCycles.
const tscSupported = true
