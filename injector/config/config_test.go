package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/fovea/injector/config"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fovea.toml")
	content := `
[logging]
level = "debug"

[vrs]
enabled = false

[demo]
width = 2560
height = 1440
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.VRS.Enabled)
	assert.Equal(t, uint32(2560), cfg.Demo.Width)
	assert.Equal(t, uint32(1440), cfg.Demo.Height)
	// Untouched sections keep their defaults.
	assert.Equal(t, "shaders/foveate.comp.spv", cfg.VRS.ShaderPath)
	assert.Equal(t, 240, cfg.Demo.Frames)
}

func TestLoadFailsOnMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadFailsOnBrokenToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fovea.toml")
	require.NoError(t, os.WriteFile(path, []byte("[vrs\nenabled ="), 0o644))
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestDefaultsAreUsable(t *testing.T) {
	cfg := config.Default()
	assert.True(t, cfg.VRS.Enabled)
	assert.NotZero(t, cfg.Demo.Width)
	assert.NotZero(t, cfg.Demo.Height)
}
