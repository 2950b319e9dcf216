package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/fovea/injector/config"
)

func waitForUpdate(t *testing.T, watcher *config.Watcher) *config.Config {
	t.Helper()
	select {
	case cfg := <-watcher.Updates():
		return cfg
	case <-time.After(5 * time.Second):
		t.Fatal("no config update arrived")
		return nil
	}
}

func TestWatcherDeliversReloadedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fovea.toml")
	require.NoError(t, os.WriteFile(path, []byte("[vrs]\nenabled = true\n"), 0o644))

	watcher, err := config.NewWatcher(path)
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(path, []byte("[vrs]\nenabled = false\n"), 0o644))

	cfg := waitForUpdate(t, watcher)
	assert.False(t, cfg.VRS.Enabled)
	// Sections the file does not touch come back as defaults.
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestWatcherSkipsBrokenWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fovea.toml")
	require.NoError(t, os.WriteFile(path, []byte("[demo]\nframes = 1\n"), 0o644))

	watcher, err := config.NewWatcher(path)
	require.NoError(t, err)
	defer watcher.Close()

	// An editor mid-save leaves a torn file; the watcher must not deliver
	// it and must pick up the completed write that follows.
	require.NoError(t, os.WriteFile(path, []byte("[demo\nframes ="), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("[demo]\nframes = 7\n"), 0o644))

	cfg := waitForUpdate(t, watcher)
	assert.Equal(t, 7, cfg.Demo.Frames)
}
