// Command ballsterm runs the balls screensaver in a terminal. Every cell
// shows two vertically stacked pixels using the upper half block.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/olivierh59500/balls-screensaver-go/internal/config"
	"github.com/olivierh59500/balls-screensaver-go/internal/sim"
)

const (
	frameTime  = 33 * time.Millisecond
	sampleRate = beep.SampleRate(44100)
	chimeHz    = 660
)

type app struct {
	screen tcell.Screen
	sim    *sim.Simulation
	scale  float64 // simulation units per terminal pixel

	cols, rows int
	pixels     []colorful.Color // cols x 2*rows

	paused  bool
	sound   bool
	cycles  cycleWatch
	message string // shown on the status line
}

// cycleWatch reports completed infection cycles. The count restarts from
// zero whenever the colour rule is rebuilt.
type cycleWatch struct{ last int }

func (w *cycleWatch) advance(cycles int) bool {
	if cycles < w.last {
		w.last = cycles
	}
	if cycles > w.last {
		w.last = cycles
		return true
	}
	return false
}

func newApp(cfg config.Config, scale float64, seed uint64, sound bool) (*app, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	// stderr shares the terminal with the screen.
	log.SetOutput(io.Discard)

	a := &app{screen: screen, scale: scale}
	a.cols, a.rows = screen.Size()
	a.pixels = make([]colorful.Color, a.cols*a.rows*2)

	w, h := a.bounds()
	a.sim, err = sim.New(cfg, w, h, sim.NewRand(seed))
	if err != nil {
		screen.Fini()
		log.SetOutput(os.Stderr)
		return nil, err
	}
	a.sim.SetLogger(nil) // the terminal is ours

	if sound {
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			// Non-fatal, run silently
			a.message = fmt.Sprintf("audio initialization failed: %v", err)
		} else {
			a.sound = true
		}
	}
	return a, nil
}

func (a *app) bounds() (float64, float64) {
	return float64(max(a.cols, 1)) * a.scale, float64(max(a.rows, 1)*2) * a.scale
}

func (a *app) resize() {
	a.screen.Sync()
	a.cols, a.rows = a.screen.Size()
	a.pixels = make([]colorful.Color, a.cols*a.rows*2)
	a.sim.Resize(a.bounds())
}

// handle returns false when the app should quit.
func (a *app) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			cfg := a.sim.Config()
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				a.paused = !a.paused
				return true
			case 'm':
				cfg.ColorMode = cfg.ColorMode.Next()
			case 'd':
				cfg.ShowDensity = !cfg.ShowDensity
			case '+':
				cfg.Count = min(max(cfg.Count*2, 1), config.MaxCount)
			case '-':
				cfg.Count /= 2
			default:
				return true
			}
			if err := a.sim.Reconfigure(cfg); err != nil {
				a.message = fmt.Sprintf("reconfigure: %v", err)
			}
		}
	case *tcell.EventResize:
		a.resize()
	}
	return true
}

func (a *app) step(dt float64) {
	a.sim.Step(dt)
	if a.cycles.advance(a.sim.Stats().Cycles) {
		a.chime()
	}
}

func (a *app) chime() {
	if !a.sound {
		return
	}
	sine, err := generators.SineTone(sampleRate, chimeHz)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(120*time.Millisecond), sine))
}

// rasterize paints every ball into the pixel buffer, later balls on top.
func (a *app) rasterize() {
	clear(a.pixels)
	pw, ph := a.cols, a.rows*2
	inv := 1 / a.scale
	black := colorful.Color{}

	for _, in := range a.sim.Instances() {
		cx := float64(in.Position[0]) * inv
		cy := float64(in.Position[1]) * inv
		r := math.Max(float64(in.Scale)*inv/2, 0.5)
		c := black.BlendRgb(colorful.Color{
			R: float64(in.Color[0]),
			G: float64(in.Color[1]),
			B: float64(in.Color[2]),
		}, float64(in.Color[3]))

		x0, x1 := max(int(cx-r), 0), min(int(cx+r), pw-1)
		y0, y1 := max(int(cy-r), 0), min(int(cy+r), ph-1)
		for y := y0; y <= y1; y++ {
			dy := float64(y) + 0.5 - cy
			for x := x0; x <= x1; x++ {
				dx := float64(x) + 0.5 - cx
				if dx*dx+dy*dy <= r*r {
					a.pixels[y*pw+x] = c
				}
			}
		}
	}
}

func (a *app) draw() {
	a.rasterize()
	for row := range a.rows {
		top := a.pixels[2*row*a.cols:]
		bottom := a.pixels[(2*row+1)*a.cols:]
		for col := range a.cols {
			style := tcell.StyleDefault.
				Foreground(rgb(top[col])).
				Background(rgb(bottom[col]))
			a.screen.SetContent(col, row, '▀', nil, style)
		}
	}

	status := statusLine(a.sim.Stats(), a.sim.Config().ColorMode, a.message)
	for i, r := range status {
		if i >= a.cols {
			break
		}
		a.screen.SetContent(i, 0, r, nil, tcell.StyleDefault.Reverse(true))
	}
	a.screen.Show()
}

func statusLine(st sim.Stats, mode config.ColorMode, message string) string {
	s := fmt.Sprintf(" %d balls  %v  speed %.0f ", st.Balls, mode, st.MeanSpeed)
	if mode == config.ColorInfection {
		s += fmt.Sprintf(" infected %d  cycles %d ", st.Infected, st.Cycles)
	}
	if message != "" {
		s += " " + message + " "
	}
	return s
}

func rgb(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func (a *app) run() {
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			events <- a.screen.PollEvent()
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-events:
			if ev == nil || !a.handle(ev) {
				return
			}
		case now := <-ticker.C:
			if !a.paused {
				a.step(now.Sub(last).Seconds())
			}
			last = now
			a.draw()
		}
	}
}

func (a *app) close() {
	if a.sound {
		speaker.Close()
	}
	a.screen.Fini()
	log.SetOutput(os.Stderr)
}

func main() {
	flags := config.BindFlags(flag.CommandLine)
	scale := flag.Float64("scale", 4, "simulation units per terminal pixel")
	seed := flag.Uint64("seed", 0, "random seed, 0 for a new one each run")
	sound := flag.Bool("sound", false, "chime when an infection cycle completes")
	flag.Parse()

	cfg, err := flags.Resolve()
	if err != nil {
		log.Fatal(err)
	}
	if !(*scale > 0) {
		log.Fatalf("invalid -scale %v", *scale)
	}

	a, err := newApp(cfg, *scale, *seed, *sound)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	a.run()
}
