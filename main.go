package main

import (
	"errors"
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/olivierh59500/balls-screensaver-go/internal/config"
	"github.com/olivierh59500/balls-screensaver-go/internal/sim"
)

func main() {
	flags := config.BindFlags(flag.CommandLine)
	width := flag.Int("width", 1280, "window width")
	height := flag.Int("height", 720, "window height")
	seed := flag.Uint64("seed", 0, "random seed, 0 for a new one each run")
	flag.Parse()

	cfg, err := flags.Resolve()
	if err != nil {
		log.Fatal(err)
	}

	game, err := NewGame(cfg, *width, *height, sim.NewRand(*seed))
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("Balls")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
