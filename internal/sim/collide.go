package sim

import (
	"log"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pair is an unordered pair of touching particles, A < B.
type Pair struct{ A, B int }

// Resolver finds and resolves ball-ball and ball-wall collisions. The pair
// slice it returns is reused by the next call.
type Resolver struct {
	pairs []Pair
}

// Resolve runs the narrow phase over the grid's candidates, then keeps every
// ball inside width x height. Each unordered pair is resolved at most once.
func (r *Resolver) Resolve(ps *ParticleSet, g *Grid, width, height float64) []Pair {
	r.pairs = r.pairs[:0]
	rad := ps.Radius

	for i := range ps.Particles {
		for j := range g.Neighbors(i) {
			if j <= i {
				continue
			}
			if Collide(&ps.Particles[i], &ps.Particles[j], rad, rad) {
				r.pairs = append(r.pairs, Pair{A: i, B: j})
			}
		}
	}

	for i := range ps.Particles {
		Bounce(&ps.Particles[i], rad, width, height)
	}
	return r.pairs
}

// Collide resolves an elastic collision between two equal-mass circles and
// reports whether they were touching. Overlap is removed by moving both
// halfway along the contact normal. Normal velocity components are swapped
// only while the balls approach each other; tangential components are kept.
func Collide(a, b *Particle, ra, rb float64) bool {
	delta := r2.Sub(a.Pos, b.Pos)
	reach := ra + rb
	d2 := r2.Norm2(delta)
	if !(d2 < reach*reach) {
		return false
	}

	d := math.Sqrt(d2)
	n := r2.Vec{X: 1} // coincident centres
	if d > 0 {
		n = r2.Scale(1/d, delta)
	}

	shift := r2.Scale((reach-d)/2, n)
	a.Pos = r2.Add(a.Pos, shift)
	b.Pos = r2.Sub(b.Pos, shift)

	an := r2.Dot(a.Vel, n)
	bn := r2.Dot(b.Vel, n)
	if an-bn < 0 {
		a.Vel = r2.Add(a.Vel, r2.Scale(bn-an, n))
		b.Vel = r2.Add(b.Vel, r2.Scale(an-bn, n))
	}
	return true
}

// Bounce keeps a ball of radius r inside [0,w] x [0,h]. The velocity
// component is pointed back inside and the position clamped so the ball
// touches the wall. A bound narrower than the ball pins it to the centre.
func Bounce(p *Particle, r, w, h float64) {
	p.Pos.X, p.Vel.X = bounceAxis(p.Pos.X, p.Vel.X, r, w)
	p.Pos.Y, p.Vel.Y = bounceAxis(p.Pos.Y, p.Vel.Y, r, h)
}

func bounceAxis(x, v, r, size float64) (float64, float64) {
	if math.IsNaN(x) {
		return size / 2, v
	}
	lo, hi := r, size-r
	if lo > hi {
		return size / 2, v
	}
	switch {
	case x < lo:
		return lo, math.Abs(v)
	case x > hi:
		return hi, -math.Abs(v)
	}
	return x, v
}

const (
	// correctionRate is the fraction of the relative speed error removed per
	// second of simulated time.
	correctionRate = 0.1
	minCorrection  = 0.5
	maxCorrection  = 2.0
)

// CorrectVelocities nudges the mean speed toward target. Velocities that are
// zero, non-finite or absurdly large are replaced with a random heading at
// the target speed. It returns the number of replaced velocities.
func CorrectVelocities(ps *ParticleSet, target, dt float64, rng *rand.Rand, logger *log.Logger) int {
	if ps.Len() == 0 {
		return 0
	}

	factor := 1.0
	if mean := ps.MeanSpeed(); mean > 0 {
		factor = 1 + (target/mean-1)*dt*correctionRate
		factor = math.Min(math.Max(factor, minCorrection), maxCorrection)
	}

	limit := math.Max(target*target*1000, 10)
	reset := 0
	for i := range ps.Particles {
		p := &ps.Particles[i]
		before := p.Speed()
		if before == 0 || math.IsNaN(before) || math.IsInf(before, 0) {
			if before != 0 && logger != nil {
				logger.Printf("ball %d velocity is not finite (%v), resetting", i, p.Vel)
			}
			switch {
			case target > 0:
				p.Vel = randomHeading(rng, target)
				reset++
			case before != 0:
				p.Vel = r2.Vec{}
				reset++
			}
			continue
		}
		p.Vel = r2.Scale(factor, p.Vel)
		if r2.Norm2(p.Vel) > limit {
			if logger != nil {
				logger.Printf("ball %d velocity went haywire (speed %.3g, before correcting %.3g, factor %.3g), resetting", i, p.Speed(), before, factor)
			}
			p.Vel = randomHeading(rng, target)
			reset++
		}
	}
	return reset
}

func randomHeading(rng *rand.Rand, speed float64) r2.Vec {
	a := rng.Float64() * 2 * math.Pi
	return r2.Vec{X: math.Cos(a) * speed, Y: math.Sin(a) * speed}
}
