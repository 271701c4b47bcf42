//go:build debug

package rtcheck

import (
	"fmt"
	"math"
	"runtime"
)

// Enabled reports whether the traps are compiled in.
const Enabled = true

// Finite panics when x is NaN or infinite.
func Finite(stage string, x float32) {
	if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
		panic(fmt.Sprintf("rtcheck: non-finite sample %v in %s", x, stage))
	}
}

// AllocTrap records the heap allocation count when it is armed.
type AllocTrap struct {
	mallocs uint64
}

// memStats is reused so the trap does not allocate itself. Only the audio
// thread arms traps.
var memStats runtime.MemStats

// Arm starts watching for heap allocations.
func Arm() AllocTrap {
	runtime.ReadMemStats(&memStats)
	return AllocTrap{mallocs: memStats.Mallocs}
}

// Check panics if anything was allocated since Arm.
func (t AllocTrap) Check(stage string) {
	runtime.ReadMemStats(&memStats)
	if n := memStats.Mallocs - t.mallocs; n > 0 {
		panic(fmt.Sprintf("rtcheck: %d heap allocations in %s", n, stage))
	}
}
