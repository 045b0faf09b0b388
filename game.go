package main

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/ncruces/zenity"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/balls-screensaver-go/internal/config"
	"github.com/olivierh59500/balls-screensaver-go/internal/sim"
)

const (
	configFile = "config.json"

	// spriteSize is the edge of the pre-rendered ball; balls are scaled
	// from it when drawn.
	spriteSize = 64
)

// Game hosts a sim.Simulation in an ebiten window.
type Game struct {
	sim    *sim.Simulation
	rng    *rand.Rand
	sprite *ebiten.Image

	width, height  int
	paused         bool
	showHUD        bool
	dragging       bool
	prevMX, prevMY int
}

// NewGame creates the simulation for a width x height window.
func NewGame(cfg config.Config, width, height int, rng *rand.Rand) (*Game, error) {
	s, err := sim.New(cfg, float64(width), float64(height), rng)
	if err != nil {
		return nil, err
	}
	g := &Game{
		sim:     s,
		rng:     rng,
		width:   width,
		height:  height,
		showHUD: true,
	}

	g.sprite = ebiten.NewImage(spriteSize, spriteSize)
	vector.DrawFilledCircle(g.sprite, spriteSize/2, spriteSize/2, spriteSize/2, color.White, true)
	return g, nil
}

// Update is called each tick by Ebitengine
func (g *Game) Update() error {
	if err := g.handleInput(); err != nil {
		return err
	}
	if g.paused {
		return nil
	}
	g.sim.Step(1 / float64(ebiten.TPS()))
	return nil
}

// Draw is called each frame by Ebitengine
func (g *Game) Draw(screen *ebiten.Image) {
	var op ebiten.DrawImageOptions
	for _, in := range g.sim.Instances() {
		scale := float64(in.Scale) / spriteSize
		op.GeoM.Reset()
		op.GeoM.Translate(-spriteSize/2, -spriteSize/2)
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(float64(in.Position[0]), float64(in.Position[1]))

		// ColorScale is premultiplied.
		a := in.Color[3]
		op.ColorScale.Reset()
		op.ColorScale.Scale(in.Color[0]*a, in.Color[1]*a, in.Color[2]*a, a)
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(g.sprite, &op)
	}

	if g.showHUD {
		ebitenutil.DebugPrintAt(screen, g.hud(), 8, 8)
	}
}

// Layout follows the window size so the balls always fill it.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 && (outsideWidth != g.width || outsideHeight != g.height) {
		g.width, g.height = outsideWidth, outsideHeight
		g.sim.Resize(float64(outsideWidth), float64(outsideHeight))
	}
	return g.width, g.height
}

func (g *Game) hud() string {
	cfg := g.sim.Config()
	st := g.sim.Stats()
	s := fmt.Sprintf("TPS %.0f  FPS %.0f\nballs %d  mode %v  speed %.0f (target %.0f)\ncollisions %d",
		ebiten.ActualTPS(), ebiten.ActualFPS(), st.Balls, cfg.ColorMode, st.MeanSpeed, cfg.Speed, st.Collisions)
	if cfg.ColorMode == config.ColorInfection {
		s += fmt.Sprintf("  infected %d  cycles %d  %v", st.Infected, st.Cycles, st.Phase)
	}
	if g.paused {
		s += "\nPAUSED"
	}
	return s + "\n\n[space] pause [m] mode [d] density [v] correction [up/down] count\n[r] reseed [s/l] save/load [o] open [h] hud [q] quit"
}

// handleInput processes keyboard and mouse input
func (g *Game) handleInput() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}

	cfg := g.sim.Config()
	changed := false
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		cfg.ColorMode = cfg.ColorMode.Next()
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		cfg.ShowDensity = !cfg.ShowDensity
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		cfg.CorrectSpeed = !cfg.CorrectSpeed
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		cfg.Count = min(max(cfg.Count*2, 1), config.MaxCount)
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		cfg.Count /= 2
		changed = true
	}
	if changed {
		if err := g.sim.Reconfigure(cfg); err != nil {
			log.Printf("reconfigure: %v", err)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reseed(g.sim.Config())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if err := config.Save(configFile, g.sim.Config()); err != nil {
			log.Printf("save: %v", err)
		} else {
			log.Printf("saved %s", configFile)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.load(configFile)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		if err := g.openConfigDialog(); err != nil {
			log.Printf("open: %v", err)
		}
	}

	// Drag to push balls around.
	mx, my := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if g.dragging {
			g.sim.Push(
				r2.Vec{X: float64(g.prevMX), Y: float64(g.prevMY)},
				r2.Vec{X: float64(mx), Y: float64(my)},
			)
		}
		g.dragging = true
	} else {
		g.dragging = false
	}
	g.prevMX, g.prevMY = mx, my
	return nil
}

// reseed restarts the simulation from scratch with cfg.
func (g *Game) reseed(cfg config.Config) {
	s, err := sim.New(cfg, float64(g.width), float64(g.height), g.rng)
	if err != nil {
		log.Printf("reseed: %v", err)
		return
	}
	g.sim = s
}

func (g *Game) load(path string) {
	cfg, err := config.Load(path)
	if err != nil {
		log.Printf("load: %v", err)
		return
	}
	if err := g.sim.Reconfigure(cfg); err != nil {
		log.Printf("load: %v", err)
	}
}

func (g *Game) openConfigDialog() error {
	filename, err := zenity.SelectFile(
		zenity.Title("Open Balls Config"),
		zenity.FileFilters{{
			Name:     "Config",
			Patterns: []string{"*.json"},
		}},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil
		}
		return err
	}
	g.load(filename)
	return nil
}
