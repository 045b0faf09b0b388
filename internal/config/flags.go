package config

import (
	"flag"
	"strings"
)

// Flags binds command line flags for every Config field. Field flags only
// override the base configuration (preset or file) when given explicitly.
type Flags struct {
	fs     *flag.FlagSet
	preset string
	path   string
	over   Config
}

// BindFlags registers the config flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	d := Default()
	fs.StringVar(&f.preset, "preset", "default", "named preset: "+strings.Join(PresetNames, ", "))
	fs.StringVar(&f.path, "config", "", "JSON config file, replaces -preset")
	fs.IntVar(&f.over.Count, "count", d.Count, "number of balls")
	fs.Float64Var(&f.over.Speed, "speed", d.Speed, "target ball speed in pixels per second")
	fs.Float64Var(&f.over.Size, "size", d.Size, "ball diameter in pixels")
	fs.TextVar(&f.over.ColorMode, "mode", d.ColorMode, "colour mode: random, color, temperature, infection")
	fs.StringVar(&f.over.Color, "color", d.Color, "hex colour used by -mode color")
	fs.BoolVar(&f.over.ShowDensity, "density", d.ShowDensity, "fade balls in sparse regions")
	fs.Float64Var(&f.over.TargetDensity, "target-density", d.TargetDensity, "neighbourhood population that is fully opaque")
	fs.Float64Var(&f.over.RegionSize, "region", d.RegionSize, "grid cell size in ball diameters")
	fs.BoolVar(&f.over.CorrectSpeed, "correct", d.CorrectSpeed, "steer the mean speed toward -speed")
	fs.TextVar(&f.over.Spawn, "spawn", d.Spawn, "initial headings: random, flow")
	fs.IntVar(&f.over.Workers, "workers", 0, "goroutines for colour passes, 0 for one per CPU")
	return f
}

// Resolve builds the configuration after the flag set was parsed.
func (f *Flags) Resolve() (Config, error) {
	var (
		c   Config
		err error
	)
	if f.path != "" {
		c, err = Load(f.path)
	} else {
		c, err = Preset(f.preset)
	}
	if err != nil {
		return Config{}, err
	}

	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "count":
			c.Count = f.over.Count
		case "speed":
			c.Speed = f.over.Speed
		case "size":
			c.Size = f.over.Size
		case "mode":
			c.ColorMode = f.over.ColorMode
		case "color":
			c.Color = f.over.Color
		case "density":
			c.ShowDensity = f.over.ShowDensity
		case "target-density":
			c.TargetDensity = f.over.TargetDensity
		case "region":
			c.RegionSize = f.over.RegionSize
		case "correct":
			c.CorrectSpeed = f.over.CorrectSpeed
		case "spawn":
			c.Spawn = f.over.Spawn
		case "workers":
			c.Workers = f.over.Workers
		}
	})
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
