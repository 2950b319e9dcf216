package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoggingConfig controls the logger verbosity.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// VRSConfig controls the shading rate injection itself.
type VRSConfig struct {
	Enabled    bool   `toml:"enabled"`
	ShaderPath string `toml:"shader_path"`
	PreviewDir string `toml:"preview_dir"`
}

// GazeConfig selects the gaze source. An empty ReplayPath means the fixed
// screen-center fallback.
type GazeConfig struct {
	ReplayPath string `toml:"replay_path"`
}

// DemoConfig drives the testbed host loop.
type DemoConfig struct {
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	Frames int    `toml:"frames"`
}

type Config struct {
	Logging LoggingConfig `toml:"logging"`
	VRS     VRSConfig     `toml:"vrs"`
	Gaze    GazeConfig    `toml:"gaze"`
	Demo    DemoConfig    `toml:"demo"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		VRS: VRSConfig{
			Enabled:    true,
			ShaderPath: "shaders/foveate.comp.spv",
		},
		Demo: DemoConfig{
			Width:  1920,
			Height: 1080,
			Frames: 240,
		},
	}
}

// Load reads a TOML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
