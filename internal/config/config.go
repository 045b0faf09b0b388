// Package config holds the balls screensaver settings, its presets and the
// JSON file format used to save and restore them.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// MaxCount is the largest accepted particle count.
	MaxCount = 200_000

	// MinRegionSize is the smallest grid cell, in ball diameters. Smaller
	// values are clamped, not rejected.
	MinRegionSize = 0.5
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// ColorMode selects the rule that colours the balls.
type ColorMode int

const (
	ColorRandom ColorMode = iota
	ColorFlat
	ColorTemperature
	ColorInfection
)

var colorModeNames = [...]string{
	ColorRandom:      "random",
	ColorFlat:        "color",
	ColorTemperature: "temperature",
	ColorInfection:   "infection",
}

func (m ColorMode) String() string {
	if m < 0 || int(m) >= len(colorModeNames) {
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
	return colorModeNames[m]
}

// Next cycles through the modes in declaration order.
func (m ColorMode) Next() ColorMode {
	return (m + 1) % ColorMode(len(colorModeNames))
}

// ParseColorMode accepts the names written by String. "flat" is accepted as
// an alias of "color".
func ParseColorMode(s string) (ColorMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "flat" {
		return ColorFlat, nil
	}
	for i, name := range colorModeNames {
		if name == s {
			return ColorMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown color mode %q", ErrInvalid, s)
}

func (m ColorMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(colorModeNames) {
		return nil, fmt.Errorf("%w: unknown color mode %d", ErrInvalid, int(m))
	}
	return []byte(m.String()), nil
}

func (m *ColorMode) UnmarshalText(b []byte) error {
	v, err := ParseColorMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// SpawnPattern chooses how initial velocities are directed.
type SpawnPattern int

const (
	// SpawnRandom gives every ball an independent uniformly random heading.
	SpawnRandom SpawnPattern = iota
	// SpawnFlow samples headings from a Perlin noise field so that nearby
	// balls start out moving together.
	SpawnFlow
)

func (p SpawnPattern) String() string {
	switch p {
	case SpawnRandom:
		return "random"
	case SpawnFlow:
		return "flow"
	}
	return fmt.Sprintf("SpawnPattern(%d)", int(p))
}

func ParseSpawnPattern(s string) (SpawnPattern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random":
		return SpawnRandom, nil
	case "flow":
		return SpawnFlow, nil
	}
	return 0, fmt.Errorf("%w: unknown spawn pattern %q", ErrInvalid, s)
}

func (p SpawnPattern) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *SpawnPattern) UnmarshalText(b []byte) error {
	v, err := ParseSpawnPattern(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Config is the set of knobs for one simulation instance. Distances are in
// simulation units (pixels for the bundled hosts), speeds in units per second.
type Config struct {
	Count         int          `json:"count"`
	Speed         float64      `json:"speed"`
	Size          float64      `json:"size"` // ball diameter
	ColorMode     ColorMode    `json:"color_mode"`
	Color         string       `json:"color"` // hex, used by the flat mode
	ShowDensity   bool         `json:"show_density"`
	TargetDensity float64      `json:"target_display_density"`
	RegionSize    float64      `json:"region_size"`
	CorrectSpeed  bool         `json:"correct_ball_velocity"`
	Spawn         SpawnPattern `json:"spawn"`
	Workers       int          `json:"workers,omitempty"` // 0 picks runtime.NumCPU
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Count:         500,
		Speed:         120,
		Size:          12,
		ColorMode:     ColorRandom,
		Color:         "#ffffff",
		ShowDensity:   false,
		TargetDensity: 12,
		RegionSize:    1,
		CorrectSpeed:  true,
		Spawn:         SpawnRandom,
	}
}

// PresetNames lists the names accepted by Preset.
var PresetNames = []string{"default", "infection", "lava", "gas", "dvd", "colors"}

// Preset returns a named configuration.
func Preset(name string) (Config, error) {
	c := Default()
	switch strings.ToLower(name) {
	case "", "default":
	case "infection":
		c.Count = 100
		c.Speed = 180
		c.Size = 36
		c.ColorMode = ColorInfection
	case "lava":
		c.Count = 10_000
		c.Speed = 45
		c.Size = 6
		c.ColorMode = ColorTemperature
		c.ShowDensity = true
		c.RegionSize = 1
	case "gas":
		c.Count = 20_000
		c.Speed = 90
		c.Size = 4
		c.ColorMode = ColorFlat
		c.ShowDensity = true
		c.RegionSize = 0.5
		c.CorrectSpeed = false
	case "dvd":
		c.Count = 1
		c.Speed = 270
		c.Size = 90
		c.ColorMode = ColorRandom
	case "colors":
		c.Count = 500
		c.Speed = 180
		c.Size = 18
		c.ColorMode = ColorRandom
	default:
		return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalid, name)
	}
	return c, nil
}

// Validate rejects values the simulation cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Count < 0:
		return fmt.Errorf("%w: count %d is negative", ErrInvalid, c.Count)
	case c.Count > MaxCount:
		return fmt.Errorf("%w: count %d exceeds %d", ErrInvalid, c.Count, MaxCount)
	case !(c.Size > 0) || math.IsInf(c.Size, 0):
		return fmt.Errorf("%w: size %v must be positive", ErrInvalid, c.Size)
	case !(c.Speed >= 0) || math.IsInf(c.Speed, 0):
		return fmt.Errorf("%w: speed %v must be a non-negative number", ErrInvalid, c.Speed)
	case c.ShowDensity && !(c.TargetDensity > 0):
		return fmt.Errorf("%w: target density %v must be positive", ErrInvalid, c.TargetDensity)
	case math.IsNaN(c.RegionSize) || math.IsInf(c.RegionSize, 0):
		return fmt.Errorf("%w: region size %v", ErrInvalid, c.RegionSize)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d is negative", ErrInvalid, c.Workers)
	}
	if _, err := c.ColorMode.MarshalText(); err != nil {
		return err
	}
	if _, err := c.BaseColor(); err != nil {
		return err
	}
	return nil
}

// Normalized returns a copy with soft limits applied.
func (c Config) Normalized() Config {
	if c.RegionSize < MinRegionSize {
		c.RegionSize = MinRegionSize
	}
	if c.TargetDensity <= 0 {
		c.TargetDensity = Default().TargetDensity
	}
	return c
}

// Radius is half of the configured size.
func (c Config) Radius() float64 { return c.Size / 2 }

// CellSize is the spatial grid cell edge for this configuration.
func (c Config) CellSize() float64 {
	return c.Size * math.Max(c.RegionSize, MinRegionSize)
}

// BaseColor parses Color. An empty string means white.
func (c Config) BaseColor() (colorful.Color, error) {
	if c.Color == "" {
		return colorful.Color{R: 1, G: 1, B: 1}, nil
	}
	col, err := colorful.Hex(c.Color)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: color %q: %v", ErrInvalid, c.Color, err)
	}
	return col, nil
}

// Load reads a JSON config file. Missing fields keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Save writes c as indented JSON.
func Save(path string, c Config) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
