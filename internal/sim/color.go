package sim

import (
	"math/rand/v2"
	"runtime"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/olivierh59500/balls-screensaver-go/internal/config"
)

// Phase is the state of an infection cycle.
type Phase int

const (
	// PhaseSeeding: exactly one ball is infected.
	PhaseSeeding Phase = iota
	// PhaseSpreading: more than one but not all balls are infected.
	PhaseSpreading
	// PhaseAllInfected only exists inside an update; the cycle restarts in
	// the same step.
	PhaseAllInfected
)

func (p Phase) String() string {
	switch p {
	case PhaseSeeding:
		return "seeding"
	case PhaseSpreading:
		return "spreading"
	case PhaseAllInfected:
		return "all-infected"
	}
	return "unknown"
}

// ColorRule colours the balls. The variant is picked once from the config
// mode; the density overlay applies on top of any variant.
type ColorRule struct {
	mode          config.ColorMode
	flat          colorful.Color
	targetSpeed   float64
	density       bool
	targetDensity float64
	workers       int
	rng           *rand.Rand

	// infection state
	healthy, sick colorful.Color
	infected      int
	total         int
	cycles        int

	update func(c *ColorRule, ps *ParticleSet, pairs []Pair)
}

// NewColorRule builds the rule for cfg. cfg is expected to be validated; an
// unparsable flat colour falls back to white.
func NewColorRule(cfg config.Config, rng *rand.Rand) *ColorRule {
	flat, err := cfg.BaseColor()
	if err != nil {
		flat = colorful.Color{R: 1, G: 1, B: 1}
	}

	c := &ColorRule{
		mode: cfg.ColorMode,
		flat: flat,
		rng:  rng,
	}
	c.Retune(cfg)

	switch cfg.ColorMode {
	case config.ColorRandom:
		c.update = (*ColorRule).updateRandom
	case config.ColorTemperature:
		c.update = (*ColorRule).updateTemperature
	case config.ColorInfection:
		c.update = (*ColorRule).updateInfection
	default:
		c.update = func(*ColorRule, *ParticleSet, []Pair) {}
	}
	return c
}

// Retune applies the config fields that do not require re-colouring.
func (c *ColorRule) Retune(cfg config.Config) {
	c.targetSpeed = cfg.Speed
	c.density = cfg.ShowDensity
	c.targetDensity = cfg.TargetDensity
	c.workers = cfg.Workers
	if c.workers == 0 {
		c.workers = runtime.NumCPU()
	}
}

func (c *ColorRule) Mode() config.ColorMode { return c.mode }

// Init colours every ball from scratch and resets the alpha channel.
func (c *ColorRule) Init(ps *ParticleSet) {
	c.total = ps.Len()
	if c.mode == config.ColorInfection {
		c.healthy = randomColor(c.rng)
		c.sick = randomDistinctColor(c.rng, c.healthy)
		c.infected = 0
		c.cycles = 0
	}
	for i := range ps.Particles {
		c.Seed(ps, i)
	}
	if c.mode == config.ColorInfection {
		c.seedInfection(ps)
	}
}

// Seed gives a newly spawned ball its initial colour. Under the infection
// rule new balls start healthy.
func (c *ColorRule) Seed(ps *ParticleSet, i int) {
	p := &ps.Particles[i]
	p.Alpha = 1
	p.Infected = false
	switch c.mode {
	case config.ColorRandom:
		p.Color = randomColor(c.rng)
	case config.ColorTemperature:
		p.Color = colorful.Hsv(TemperatureHue(p.Speed(), c.targetSpeed), 1, 1)
	case config.ColorInfection:
		p.Color = c.healthy
	default:
		p.Color = c.flat
	}
}

// Resync recounts infection state after balls were added or removed and
// makes sure an infection cycle always has a seed.
func (c *ColorRule) Resync(ps *ParticleSet) {
	c.total = ps.Len()
	if c.mode != config.ColorInfection {
		return
	}
	c.infected = 0
	for i := range ps.Particles {
		if ps.Particles[i].Infected {
			c.infected++
		}
	}
	if c.infected == 0 {
		c.seedInfection(ps)
	}
}

// ResetAlpha makes every ball fully opaque.
func (c *ColorRule) ResetAlpha(ps *ParticleSet) {
	for i := range ps.Particles {
		ps.Particles[i].Alpha = 1
	}
}

// Update recolours the balls for this frame. pairs are the collisions the
// resolver found this frame; g must have been rebuilt from ps this frame.
func (c *ColorRule) Update(ps *ParticleSet, g *Grid, pairs []Pair, dt float64) {
	c.total = ps.Len()
	c.update(c, ps, pairs)

	if c.density {
		target := c.targetDensity
		forEachChunk(ps.Len(), c.workers, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				ps.Particles[i].Alpha = densityAlpha(g.NeighborhoodCount(i), target)
			}
		})
	}
}

func (c *ColorRule) updateRandom(ps *ParticleSet, pairs []Pair) {
	for _, pr := range pairs {
		col := randomColor(c.rng)
		ps.Particles[pr.A].Color = col
		ps.Particles[pr.B].Color = col
	}
}

func (c *ColorRule) updateTemperature(ps *ParticleSet, _ []Pair) {
	target := c.targetSpeed
	forEachChunk(ps.Len(), c.workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			p := &ps.Particles[i]
			p.Color = colorful.Hsv(TemperatureHue(p.Speed(), target), 1, 1)
		}
	})
}

func (c *ColorRule) updateInfection(ps *ParticleSet, pairs []Pair) {
	for _, pr := range pairs {
		a, b := &ps.Particles[pr.A], &ps.Particles[pr.B]
		if a.Infected == b.Infected {
			continue
		}
		a.Infected, b.Infected = true, true
		a.Color, b.Color = c.sick, c.sick
		c.infected++
	}

	if n := ps.Len(); n > 1 && c.infected >= n {
		c.restartInfection(ps)
	}
}

// restartInfection begins a new cycle: the old infected colour becomes the
// healthy one, a new infected colour is drawn and a single ball is seeded.
func (c *ColorRule) restartInfection(ps *ParticleSet) {
	c.cycles++
	c.healthy = c.sick
	c.sick = randomDistinctColor(c.rng, c.healthy)
	for i := range ps.Particles {
		ps.Particles[i].Infected = false
		ps.Particles[i].Color = c.healthy
	}
	c.infected = 0
	c.seedInfection(ps)
}

func (c *ColorRule) seedInfection(ps *ParticleSet) {
	if ps.Len() == 0 {
		return
	}
	p := &ps.Particles[c.rng.IntN(ps.Len())]
	p.Infected = true
	p.Color = c.sick
	c.infected++
}

// Infected is the number of infected balls.
func (c *ColorRule) Infected() int { return c.infected }

// Cycles counts completed infection cycles.
func (c *ColorRule) Cycles() int { return c.cycles }

// Phase reports the infection cycle state as of the last update.
func (c *ColorRule) Phase() Phase {
	switch {
	case c.infected <= 1:
		return PhaseSeeding
	case c.infected < c.total:
		return PhaseSpreading
	}
	return PhaseAllInfected
}
