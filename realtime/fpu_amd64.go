//go:build amd64

package realtime

import "golang.org/x/sys/cpu"

const (
	mxcsrDAZ = 1 << 6
	mxcsrFTZ = 1 << 15
)

// fpuState is the SSE control/status register.
type fpuState uint32

var flushSupported = cpu.X86.HasSSE2

func (s fpuState) withFlush() fpuState { return s | mxcsrFTZ | mxcsrDAZ }

func (s fpuState) flushing() bool { return s&(mxcsrFTZ|mxcsrDAZ) == mxcsrFTZ|mxcsrDAZ }

func readFPU() fpuState { return fpuState(getMXCSR()) }

func writeFPU(s fpuState) { setMXCSR(uint32(s)) }

func getMXCSR() uint32

func setMXCSR(v uint32)
