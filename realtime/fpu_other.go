//go:build !amd64 && !arm64

package realtime

type fpuState struct{}

const flushSupported = false

func (s fpuState) withFlush() fpuState { return s }

func (fpuState) flushing() bool { return false }

func readFPU() fpuState { return fpuState{} }

func writeFPU(fpuState) {}
