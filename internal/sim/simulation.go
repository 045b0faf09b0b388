// Package sim is the balls screensaver engine: a set of equal circles that
// move, bounce off each other and the screen edges, and are coloured by one
// of several rules. Renderers consume the Instance slice returned by Step.
//
// A Simulation is not safe for concurrent use; one goroutine owns it and
// calls Step once per rendered frame.
package sim

import (
	"fmt"
	"log"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/balls-screensaver-go/internal/config"
)

const (
	// MaxFrameTime is the largest dt Step accepts, in seconds.
	MaxFrameTime = 0.25

	// brushFraction is the pointer brush radius relative to the height.
	brushFraction = 0.075
)

// Stats is a snapshot of the last step.
type Stats struct {
	Frame      uint64
	Balls      int
	Collisions int
	MeanSpeed  float64
	Infected   int
	Cycles     int
	Phase      Phase
	Resets     int // velocities replaced by the speed correction
}

// Simulation steps the balls one frame at a time.
type Simulation struct {
	cfg           config.Config
	width, height float64

	particles *ParticleSet
	grid      *Grid
	resolver  Resolver
	colors    *ColorRule
	spawner   *Spawner
	rng       *rand.Rand
	logger    *log.Logger

	pairs     []Pair
	instances []Instance
	frame     uint64
	resets    int
}

// New validates cfg and spawns cfg.Count balls inside width x height.
func New(cfg config.Config, width, height float64, rng *rand.Rand) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !(width > 0) || !(height > 0) {
		return nil, fmt.Errorf("%w: bounds %vx%v", config.ErrInvalid, width, height)
	}
	cfg = cfg.Normalized()

	s := &Simulation{
		cfg:       cfg,
		width:     width,
		height:    height,
		particles: NewParticleSet(cfg.Count, cfg.Radius()),
		grid:      NewGrid(width, height),
		colors:    NewColorRule(cfg, rng),
		spawner:   NewSpawner(cfg.Spawn, rng),
		rng:       rng,
		logger:    log.Default(),
	}
	s.spawner.Spawn(s.particles, 0, width, height, cfg.Speed)
	s.colors.Init(s.particles)
	s.grid.Rebuild(s.particles, cfg.CellSize())
	s.instances = s.particles.AppendInstances(make([]Instance, 0, cfg.Count))
	return s, nil
}

// SetLogger redirects diagnostics. A nil logger silences them.
func (s *Simulation) SetLogger(l *log.Logger) { s.logger = l }

// Step advances the simulation by dt seconds and returns the render
// instances. The slice is reused by the next call.
func (s *Simulation) Step(dt float64) []Instance {
	if !(dt > 0) {
		dt = 0
	} else if dt > MaxFrameTime {
		dt = MaxFrameTime
	}

	s.particles.Advance(dt)
	s.grid.Rebuild(s.particles, s.cfg.CellSize())
	s.pairs = s.resolver.Resolve(s.particles, s.grid, s.width, s.height)
	if s.cfg.CorrectSpeed {
		s.resets = CorrectVelocities(s.particles, s.cfg.Speed, dt, s.rng, s.logger)
	} else {
		s.resets = 0
	}
	s.colors.Update(s.particles, s.grid, s.pairs, dt)

	s.instances = s.particles.AppendInstances(s.instances[:0])
	s.frame++
	return s.instances
}

// Instances returns the instances produced by the last Step (or New).
func (s *Simulation) Instances() []Instance { return s.instances }

// Particles exposes the particle state. Callers must not keep it across a
// Reconfigure.
func (s *Simulation) Particles() *ParticleSet { return s.particles }

// Grid exposes the spatial index as of the last step.
func (s *Simulation) Grid() *Grid { return s.grid }

// Config returns the active (normalised) configuration.
func (s *Simulation) Config() config.Config { return s.cfg }

// Bounds returns the simulation area.
func (s *Simulation) Bounds() (width, height float64) { return s.width, s.height }

// Stats reports counters of the last step.
func (s *Simulation) Stats() Stats {
	return Stats{
		Frame:      s.frame,
		Balls:      s.particles.Len(),
		Collisions: len(s.pairs),
		MeanSpeed:  s.particles.MeanSpeed(),
		Infected:   s.colors.Infected(),
		Cycles:     s.colors.Cycles(),
		Phase:      s.colors.Phase(),
		Resets:     s.resets,
	}
}

// Reconfigure switches to cfg without restarting: the speed is rescaled,
// balls are added or removed, and colours are rebuilt only when the colour
// settings change. An invalid cfg is rejected and nothing changes.
func (s *Simulation) Reconfigure(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.Normalized()
	old := s.cfg
	if cfg == old {
		return nil
	}
	s.logf("config changed: %d balls, mode %v, speed %.3g, size %.3g", cfg.Count, cfg.ColorMode, cfg.Speed, cfg.Size)

	if cfg.Speed != old.Speed {
		if mean := s.particles.MeanSpeed(); mean > 0 {
			s.particles.ScaleVelocities(cfg.Speed / mean)
		}
	}
	if cfg.Size != old.Size {
		s.particles.Radius = cfg.Radius()
	}
	if cfg.Spawn != old.Spawn {
		s.spawner = NewSpawner(cfg.Spawn, s.rng)
	}

	s.cfg = cfg
	s.colors.Retune(cfg)

	recolor := cfg.ColorMode != old.ColorMode || cfg.Color != old.Color
	if recolor {
		s.colors = NewColorRule(cfg, s.rng)
	}

	switch n := s.particles.Len(); {
	case cfg.Count > n:
		first := s.particles.Grow(cfg.Count - n)
		s.spawner.Spawn(s.particles, first, s.width, s.height, cfg.Speed)
		if !recolor {
			for i := first; i < s.particles.Len(); i++ {
				s.colors.Seed(s.particles, i)
			}
		}
	case cfg.Count < n:
		s.particles.Truncate(cfg.Count)
	}

	if recolor {
		s.colors.Init(s.particles)
	} else {
		s.colors.Resync(s.particles)
	}
	if old.ShowDensity && !cfg.ShowDensity {
		s.colors.ResetAlpha(s.particles)
	}

	s.grid.Rebuild(s.particles, cfg.CellSize())
	s.instances = s.particles.AppendInstances(s.instances[:0])
	return nil
}

// Resize changes the bounds, stretching positions proportionally so the
// balls keep their place on screen.
func (s *Simulation) Resize(width, height float64) {
	if !(width > 0) || !(height > 0) || (width == s.width && height == s.height) {
		return
	}
	sx, sy := width/s.width, height/s.height
	r := s.particles.Radius
	for i := range s.particles.Particles {
		p := &s.particles.Particles[i]
		p.Pos = r2.Vec{X: p.Pos.X * sx, Y: p.Pos.Y * sy}
		Bounce(p, r, width, height)
	}
	s.width, s.height = width, height
	s.grid.SetBounds(width, height)
	s.grid.Rebuild(s.particles, s.cfg.CellSize())
}

// Push adds a pointer drag from -> to (simulation units) to the velocity of
// every ball near to.
func (s *Simulation) Push(from, to r2.Vec) {
	delta := r2.Sub(to, from)
	if delta == (r2.Vec{}) {
		return
	}
	radius := s.height * brushFraction
	r2max := radius * radius
	for i := range s.grid.Around(to, radius) {
		p := &s.particles.Particles[i]
		if r2.Norm2(r2.Sub(p.Pos, to)) <= r2max {
			p.Vel = r2.Add(p.Vel, delta)
		}
	}
}

func (s *Simulation) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
