// Package config reads the engine configuration: sample rate, bus gains, the
// slots mounted at startup and the MIDI controller mapping.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/shapetone/shapetone"
	"github.com/shapetone/shapetone/bus"
	"github.com/shapetone/shapetone/midi"
)

type (
	Config struct {
		SampleRate int
		// BusGain is the gain of the input bus of every slot.
		BusGain    float64
		MasterGain float64
		// PresetDir is the directory of the user's own presets. Empty means
		// the presets directory under the user config directory.
		PresetDir string `yaml:",omitempty"`
		Slots     []Slot
		MIDI      midi.Mapping
	}

	// Slot is a controller mounted at startup.
	Slot struct {
		Channel    string
		Instrument string
		Knobs      []float64 `yaml:",flow"`
		// Tone is the frequency of the test tone played into the slot, or 0
		// for none.
		Tone float64 `yaml:",omitempty"`
	}
)

const appDir = "shapetone"

//go:embed default.yml
var defaultConfigYaml []byte

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	if err := yaml.UnmarshalStrict(defaultConfigYaml, &c); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return c
}

// Load returns the built-in configuration overlaid with the file at path. An
// empty path means config.yml under the user config directory, which is
// allowed to be missing.
func Load(path string) (Config, error) {
	c := Default()
	explicit := path != ""
	if !explicit {
		dir, err := os.UserConfigDir()
		if err != nil {
			return c, nil
		}
		path = filepath.Join(dir, appDir, "config.yml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks the values that cannot be fixed by clamping.
func (c *Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("samplerate must be positive, got %d", c.SampleRate))
	}
	if c.BusGain < 0 || c.MasterGain < 0 {
		errs = append(errs, errors.New("gains must not be negative"))
	}
	seen := map[string]bool{}
	for i, s := range c.Slots {
		switch s.Channel {
		case "":
			errs = append(errs, fmt.Errorf("slot %d: empty channel", i))
		case bus.MasterChannel:
			errs = append(errs, fmt.Errorf("slot %d: %w: %q", i, shapetone.ErrReservedChannel, s.Channel))
		}
		if seen[s.Channel] {
			errs = append(errs, fmt.Errorf("slot %d: duplicate channel %q", i, s.Channel))
		}
		seen[s.Channel] = true
	}
	return errors.Join(errs...)
}

// UserPresetDir returns PresetDir, or the default user preset directory if
// PresetDir is empty. Returns "" if there is no user config directory.
func (c *Config) UserPresetDir() string {
	if c.PresetDir != "" {
		return c.PresetDir
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDir, "presets")
}
