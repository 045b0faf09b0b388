package config

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestPresetsValidate(t *testing.T) {
	for _, name := range PresetNames {
		c, err := Preset(name)
		if err != nil {
			t.Fatalf("Preset(%q): %v", name, err)
		}
		if err := c.Validate(); err != nil {
			t.Errorf("Preset %q should validate, got %v", name, err)
		}
	}

	if _, err := Preset("snow"); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for unknown preset, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative count", func(c *Config) { c.Count = -1 }},
		{"too many", func(c *Config) { c.Count = MaxCount + 1 }},
		{"zero size", func(c *Config) { c.Size = 0 }},
		{"nan size", func(c *Config) { c.Size = math.NaN() }},
		{"negative speed", func(c *Config) { c.Speed = -3 }},
		{"infinite speed", func(c *Config) { c.Speed = math.Inf(1) }},
		{"density target", func(c *Config) { c.ShowDensity = true; c.TargetDensity = 0 }},
		{"bad color", func(c *Config) { c.Color = "#zz0000" }},
		{"bad mode", func(c *Config) { c.ColorMode = ColorMode(42) }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestNormalizedClampsRegionSize(t *testing.T) {
	c := Default()
	c.RegionSize = 0.1
	n := c.Normalized()
	if n.RegionSize != MinRegionSize {
		t.Errorf("Expected region size %v, got %v", MinRegionSize, n.RegionSize)
	}
	if got, want := c.CellSize(), c.Size*MinRegionSize; got != want {
		t.Errorf("Expected cell size %v, got %v", want, got)
	}
}

func TestColorModeText(t *testing.T) {
	for m := ColorRandom; m <= ColorInfection; m++ {
		b, err := m.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", m, err)
		}
		var back ColorMode
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", b, err)
		}
		if back != m {
			t.Errorf("Expected %v, got %v", m, back)
		}
	}

	if m, err := ParseColorMode("Flat"); err != nil || m != ColorFlat {
		t.Errorf("Expected flat alias to parse, got %v, %v", m, err)
	}
	if got := ColorInfection.Next(); got != ColorRandom {
		t.Errorf("Expected Next to wrap to random, got %v", got)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balls.json")

	c := Default()
	c.Count = 42
	c.ColorMode = ColorTemperature
	c.Spawn = SpawnFlow
	if err := Save(path, c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != c {
		t.Errorf("Expected %+v, got %+v", c, got)
	}

	partial := filepath.Join(t.TempDir(), "partial.json")
	data, _ := json.Marshal(map[string]any{"count": 7, "color_mode": "infection"})
	if err := os.WriteFile(partial, data, 0644); err != nil {
		t.Fatal(err)
	}
	got, err = Load(partial)
	if err != nil {
		t.Fatalf("Load partial: %v", err)
	}
	if got.Count != 7 || got.ColorMode != ColorInfection || got.Size != Default().Size {
		t.Errorf("Unexpected partial load result %+v", got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"count": -5}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
