package rtcheck

import (
	"math"
	"testing"
)

func TestFiniteAcceptsOrdinarySamples(t *testing.T) {
	for _, v := range []float32{0, 1, -1, 1e-30, 3.4e38} {
		Finite("test", v)
	}
}

func TestFiniteTrapsOnlyInDebug(t *testing.T) {
	defer func() {
		r := recover()
		if Enabled && r == nil {
			t.Fatal("expected a panic for NaN in debug builds")
		}
		if !Enabled && r != nil {
			t.Fatalf("unexpected panic in release build: %v", r)
		}
	}()
	Finite("test", float32(math.NaN()))
}

func TestAllocTrap(t *testing.T) {
	trap := Arm()
	trap.Check("idle")

	if !Enabled {
		return
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic after allocating")
		}
	}()
	trap = Arm()
	sink = make([]byte, 64)
	trap.Check("alloc")
}

var sink []byte
