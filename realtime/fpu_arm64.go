//go:build arm64

package realtime

import "golang.org/x/sys/cpu"

const fpcrFZ = 1 << 24

// fpuState is the floating point control register.
type fpuState uint64

var flushSupported = cpu.ARM64.HasFP

func (s fpuState) withFlush() fpuState { return s | fpcrFZ }

func (s fpuState) flushing() bool { return s&fpcrFZ != 0 }

func readFPU() fpuState { return fpuState(getFPCR()) }

func writeFPU(s fpuState) { setFPCR(uint64(s)) }

func getFPCR() uint64

func setFPCR(v uint64)
