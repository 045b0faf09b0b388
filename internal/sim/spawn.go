package sim

import (
	"math"
	"math/rand/v2"

	"github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/balls-screensaver-go/internal/config"
)

// Perlin parameters for the flow spawn pattern.
const (
	flowAlpha     = 2.0
	flowBeta      = 2.0
	flowOctaves   = 3
	flowFrequency = 1.5 // noise periods across the shorter screen side
)

// Spawner places new balls uniformly inside the bounds and gives them a
// heading at the configured speed.
type Spawner struct {
	pattern config.SpawnPattern
	rng     *rand.Rand
	noise   *perlin.Perlin
}

func NewSpawner(pattern config.SpawnPattern, rng *rand.Rand) *Spawner {
	s := &Spawner{pattern: pattern, rng: rng}
	if pattern == config.SpawnFlow {
		s.noise = perlin.NewPerlin(flowAlpha, flowBeta, flowOctaves, rng.Int64())
	}
	return s
}

// Spawn initialises particles [first, len) of ps within width x height.
func (s *Spawner) Spawn(ps *ParticleSet, first int, width, height, speed float64) {
	r := ps.Radius
	for i := first; i < ps.Len(); i++ {
		p := &ps.Particles[i]
		p.Pos = r2.Vec{
			X: spanRandom(s.rng, r, width-r),
			Y: spanRandom(s.rng, r, height-r),
		}
		p.Vel = s.heading(p.Pos, width, height, speed)
	}
}

func (s *Spawner) heading(pos r2.Vec, width, height, speed float64) r2.Vec {
	if s.noise == nil {
		return randomHeading(s.rng, speed)
	}
	scale := flowFrequency / math.Max(math.Min(width, height), 1)
	// Noise2D is roughly in [-1,1].
	a := s.noise.Noise2D(pos.X*scale, pos.Y*scale) * 4 * math.Pi
	return r2.Vec{X: math.Cos(a) * speed, Y: math.Sin(a) * speed}
}

// spanRandom returns a uniform value in [lo,hi], or the midpoint when the
// span is empty.
func spanRandom(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return (lo + hi) / 2
	}
	return lo + rng.Float64()*(hi-lo)
}
