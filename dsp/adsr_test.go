package dsp

import (
	"fmt"
	"testing"
)

func TestADSRStages(t *testing.T) {
	const sr = 48000.0
	for _, vel := range []float32{1, 0.25} {
		t.Run(fmt.Sprintf("velocity %.2f", vel), func(t *testing.T) {
			env := NewADSR(sr, 10, 50, 0.5, 100)
			if env.Active() {
				t.Fatal("expected a fresh envelope to be idle")
			}
			env.NoteOn(vel)
			attack := int(MsToSamples(10, sr))
			n := 0
			for env.Phase() == EnvAttack && n < attack+10 {
				env.Next()
				n++
			}
			if env.Phase() != EnvDecaySustain {
				t.Fatalf("expected decay after %d samples, still in phase %d", n, env.Phase())
			}
			if n < attack-1 || n > attack+2 {
				t.Errorf("expected attack of ~%d samples, got %d", attack, n)
			}
			if env.Level() != vel {
				t.Errorf("expected attack peak %g, got %g", vel, env.Level())
			}

			for i := 0; i < int(sr); i++ {
				env.Next()
			}
			want := 0.5 * vel
			if d := env.Level() - want; d > 1e-3 || d < -1e-3 {
				t.Errorf("expected sustain level %g, got %g", want, env.Level())
			}

			env.NoteOff()
			release := int(MsToSamples(100, sr))
			n = 0
			for env.Active() && n < 2*release {
				env.Next()
				n++
			}
			if env.Active() {
				t.Fatalf("expected envelope idle after release, level %g", env.Level())
			}
			if n > release+2 {
				t.Errorf("expected release within %d samples, took %d", release, n)
			}
			if env.Level() != 0 {
				t.Errorf("expected zero level when idle, got %g", env.Level())
			}
		})
	}
}

func TestADSRRetriggerStartsFromCurrentLevel(t *testing.T) {
	env := NewADSR(48000, 5, 20, 0.8, 200)
	env.NoteOn(1)
	for i := 0; i < 2000; i++ {
		env.Next()
	}
	env.NoteOff()
	for i := 0; i < 100; i++ {
		env.Next()
	}
	before := env.Level()
	env.NoteOn(1)
	after := env.Next()
	if after < before {
		t.Errorf("expected retrigger to rise from %g, got %g", before, after)
	}
}

func TestADSRNoteOffWhenIdleStaysIdle(t *testing.T) {
	env := NewADSR(48000, 5, 20, 0.8, 200)
	env.NoteOff()
	if env.Active() {
		t.Error("expected idle envelope to ignore note off")
	}
}
