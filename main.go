/*
Demo entry point. Runs the foveated shading rate injector against the
simulated host, so the whole path (viewport classification, rate map
generation, queue synchronization, eviction) can be watched without a game
or a capable GPU.
*/
package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spaghettifunk/fovea/injector/config"
	"github.com/spaghettifunk/fovea/injector/core"
	"github.com/spaghettifunk/fovea/injector/gaze"
	"github.com/spaghettifunk/fovea/injector/injection"
	"github.com/spaghettifunk/fovea/injector/vrs"
	"github.com/spaghettifunk/fovea/testbed"
)

const configPath = "fovea.toml"

// reattachInterval keeps the gaze provider alive; the injection drops a
// provider that is not refreshed for 100 presents.
const reattachInterval = 50

func main() {
	cfg, err := config.Load(configPath)
	if err != nil {
		core.LogWarn("no usable %s, running with defaults: %s", configPath, err.Error())
		cfg = config.Default()
	}
	core.SetLogLevel(cfg.Logging.Level)
	core.MetricsInitialize()

	inject := injection.NewManager()
	inject.SetEnabled(cfg.VRS.Enabled)

	var provider gaze.Provider
	if cfg.Gaze.ReplayPath != "" {
		replay, err := gaze.LoadReplay(cfg.Gaze.ReplayPath)
		if err != nil {
			core.LogWarn("gaze replay unavailable, foveating around the screen center: %s", err.Error())
		} else {
			provider = replay
			inject.AttachGazeProvider(provider)
		}
	}

	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		core.LogWarn("config hot reload disabled: %s", err.Error())
	} else {
		defer watcher.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	host := testbed.NewHost(inject, cfg.Demo.Width, cfg.Demo.Height)
	clock := core.NewClock()
	clock.Start()
	lastElapsed := 0.0

	core.LogInfo("presenting %d frames at %dx%d", cfg.Demo.Frames, cfg.Demo.Width, cfg.Demo.Height)
running:
	for frame := 0; cfg.Demo.Frames <= 0 || frame < cfg.Demo.Frames; frame++ {
		select {
		case <-sigCh:
			core.LogInfo("interrupted at frame %d", frame)
			break running
		default:
		}
		if watcher != nil {
			select {
			case next := <-watcher.Updates():
				core.SetLogLevel(next.Logging.Level)
				inject.SetEnabled(next.VRS.Enabled)
				cfg.VRS.PreviewDir = next.VRS.PreviewDir
			default:
			}
		}

		if provider != nil && frame%reattachInterval == 0 {
			inject.AttachGazeProvider(provider)
		}

		host.Frame()
		clock.Update()
		core.MetricsUpdate(clock.ElapsedSeconds() - lastElapsed)
		lastElapsed = clock.ElapsedSeconds()
	}

	rates := inject.Rates(host.Device())
	if rates == nil {
		core.LogWarn("no rendering context was created")
		return
	}
	stats := rates.Stats()
	fps, frameTime := core.MetricsFrame()
	core.LogInfo("cache hits=%d misses=%d regenerations=%d evictions=%d queue waits=%d",
		stats.Hits, stats.Misses, stats.Regenerations, stats.Evictions, stats.QueueWaits)
	core.LogInfo("%d frames, %.0f fps, %.3f ms avg", host.Frames(), fps, frameTime)

	if cfg.VRS.PreviewDir != "" {
		writePreview(rates, host, cfg.VRS.PreviewDir)
	}
}

func writePreview(rates *vrs.Manager, host *testbed.Host, dir string) {
	snapshot, ok := rates.Snapshot(rates.ResolutionFor(host.SceneViewport()))
	if !ok {
		core.LogWarn("no rate map cached for the scene viewport, skipping preview")
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		core.LogError("failed to create preview directory: %s", err.Error())
		return
	}
	path := filepath.Join(dir, "ratemap.png")
	if err := vrs.WritePreviewFile(path, snapshot.Texture, 8); err != nil {
		core.LogError(err.Error())
		return
	}
	core.LogInfo("rate map preview written to %s", path)
}
