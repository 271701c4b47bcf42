package realtime

import "runtime"

// denormalGuard holds the floating point control word that was active
// before the guard was entered.
type denormalGuard struct {
	saved fpuState
	set   bool
}

// enterDenormalGuard switches the current thread to flush-to-zero mode. The
// goroutine stays on its thread until the guard is exited, normally by
// defer.
func enterDenormalGuard() denormalGuard {
	if !flushSupported {
		return denormalGuard{}
	}
	runtime.LockOSThread()
	saved := readFPU()
	writeFPU(saved.withFlush())
	return denormalGuard{saved: saved, set: true}
}

func (g denormalGuard) exit() {
	if g.set {
		writeFPU(g.saved)
		runtime.UnlockOSThread()
	}
}

// FlushSupported reports whether this platform can flush denormals in
// hardware.
func FlushSupported() bool { return flushSupported }
