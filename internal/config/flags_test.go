package config

import (
	"errors"
	"flag"
	"io"
	"path/filepath"
	"testing"
)

func parse(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f.Resolve()
}

func TestFlagsOverridePreset(t *testing.T) {
	c, err := parse(t, "-preset", "infection", "-count", "7", "-mode", "temperature", "-spawn", "flow")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := Preset("infection")
	want.Count = 7
	want.ColorMode = ColorTemperature
	want.Spawn = SpawnFlow
	if c != want {
		t.Errorf("Expected %+v, got %+v", want, c)
	}
}

func TestFlagsDefaultsDoNotOverride(t *testing.T) {
	c, err := parse(t, "-preset", "lava")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := Preset("lava")
	if c != want {
		t.Errorf("Expected untouched lava preset, got %+v", c)
	}
}

func TestFlagsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balls.json")
	saved, _ := Preset("dvd")
	if err := Save(path, saved); err != nil {
		t.Fatal(err)
	}
	c, err := parse(t, "-config", path, "-preset", "gas", "-density")
	if err != nil {
		t.Fatal(err)
	}
	saved.ShowDensity = true
	if c != saved {
		t.Errorf("Expected file config with density on, got %+v", c)
	}
}

func TestFlagsRejectInvalid(t *testing.T) {
	if _, err := parse(t, "-size", "-3"); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
	if _, err := parse(t, "-preset", "nope"); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for unknown preset, got %v", err)
	}
}
