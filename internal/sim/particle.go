package sim

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// Particle is a single ball.
type Particle struct {
	Pos, Vel r2.Vec
	Color    colorful.Color
	Alpha    float64
	Infected bool // only meaningful for the infection rule
}

// Speed returns the velocity magnitude.
func (p *Particle) Speed() float64 { return r2.Norm(p.Vel) }

// ParticleSet owns the mutable particle state. All balls share one radius.
type ParticleSet struct {
	Particles []Particle
	Radius    float64
}

// NewParticleSet allocates n zeroed, fully opaque particles.
func NewParticleSet(n int, radius float64) *ParticleSet {
	ps := &ParticleSet{
		Particles: make([]Particle, n),
		Radius:    radius,
	}
	for i := range ps.Particles {
		ps.Particles[i].Alpha = 1
	}
	return ps
}

func (ps *ParticleSet) Len() int { return len(ps.Particles) }

// Advance moves every particle along its velocity for dt seconds.
func (ps *ParticleSet) Advance(dt float64) {
	for i := range ps.Particles {
		p := &ps.Particles[i]
		p.Pos = r2.Add(p.Pos, r2.Scale(dt, p.Vel))
	}
}

// MeanSpeed is the average velocity magnitude, ignoring non-finite values.
func (ps *ParticleSet) MeanSpeed() float64 {
	var total float64
	var n int
	for i := range ps.Particles {
		s := ps.Particles[i].Speed()
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		total += s
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// ScaleVelocities multiplies every velocity by f.
func (ps *ParticleSet) ScaleVelocities(f float64) {
	for i := range ps.Particles {
		ps.Particles[i].Vel = r2.Scale(f, ps.Particles[i].Vel)
	}
}

// Momentum is the sum of all velocities (equal unit masses).
func (ps *ParticleSet) Momentum() r2.Vec {
	var m r2.Vec
	for i := range ps.Particles {
		m = r2.Add(m, ps.Particles[i].Vel)
	}
	return m
}

// Truncate drops particles beyond n.
func (ps *ParticleSet) Truncate(n int) {
	if n < len(ps.Particles) {
		ps.Particles = ps.Particles[:n]
	}
}

// Grow appends k opaque particles and returns the index of the first one.
func (ps *ParticleSet) Grow(k int) int {
	first := len(ps.Particles)
	for range k {
		ps.Particles = append(ps.Particles, Particle{Alpha: 1})
	}
	return first
}
