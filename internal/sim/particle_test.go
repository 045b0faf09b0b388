package sim

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestGrowAndTruncate(t *testing.T) {
	ps := NewParticleSet(3, 2)
	first := ps.Grow(4)
	if first != 3 || ps.Len() != 7 {
		t.Fatalf("Expected first new index 3 and 7 balls, got %d and %d", first, ps.Len())
	}
	for i, p := range ps.Particles {
		if p.Alpha != 1 {
			t.Errorf("particle %d: expected opaque, got alpha %v", i, p.Alpha)
		}
	}
	ps.Truncate(2)
	if ps.Len() != 2 {
		t.Errorf("Expected 2 balls, got %d", ps.Len())
	}
	ps.Truncate(10)
	if ps.Len() != 2 {
		t.Errorf("Expected truncating upward to be a no-op, got %d", ps.Len())
	}
}

func TestMeanSpeedSkipsNonFinite(t *testing.T) {
	ps := NewParticleSet(3, 1)
	ps.Particles[0].Vel = r2.Vec{X: 3, Y: 4}
	ps.Particles[1].Vel = r2.Vec{X: 1}
	ps.Particles[2].Vel = r2.Vec{X: math.NaN()}
	if got := ps.MeanSpeed(); got != 3 {
		t.Errorf("Expected mean speed 3, got %v", got)
	}
	if got := NewParticleSet(0, 1).MeanSpeed(); got != 0 {
		t.Errorf("Expected 0 for an empty set, got %v", got)
	}
}

func TestAdvanceAndInstances(t *testing.T) {
	ps := NewParticleSet(1, 2.5)
	ps.Particles[0].Pos = r2.Vec{X: 1, Y: 1}
	ps.Particles[0].Vel = r2.Vec{X: 10, Y: -4}
	ps.Particles[0].Alpha = 0.5
	ps.Advance(0.5)

	inst := ps.AppendInstances(nil)
	if len(inst) != 1 {
		t.Fatalf("Expected 1 instance, got %d", len(inst))
	}
	if inst[0].Position != [3]float32{6, -1, 0} {
		t.Errorf("Expected position (6,-1,0), got %v", inst[0].Position)
	}
	if inst[0].Scale != 5 {
		t.Errorf("Expected scale 5, got %v", inst[0].Scale)
	}
	if inst[0].Color[3] != 0.5 {
		t.Errorf("Expected alpha 0.5, got %v", inst[0].Color[3])
	}
}
