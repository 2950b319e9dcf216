/*
Package injection ties the shading rate managers to the host's rendering
events. The host (or the hooking layer in front of it) forwards viewport
binds, command list submissions and presents; this package decides which of
them get foveated and keeps one vrs.Manager per device.
*/
package injection

import (
	"sync"

	"github.com/spaghettifunk/fovea/injector/core"
	"github.com/spaghettifunk/fovea/injector/gaze"
	"github.com/spaghettifunk/fovea/injector/gpu"
	"github.com/spaghettifunk/fovea/injector/vrs"
)

const (
	// aspectEpsilon bounds the aspect ratio mismatch between a viewport and
	// the swapchain for the viewport to count as the main scene.
	aspectEpsilon = 1e-4
	// minViewportScale is the smallest main-scene viewport relative to the
	// present width. Matches the lowest upscaler input resolution in use.
	minViewportScale = 0.32
	// providerMaxAge drops the gaze provider after this many presents
	// without the host re-attaching it.
	providerMaxAge = 100
)

type renderingContext struct {
	rates         *vrs.Manager
	presentWidth  uint32
	presentHeight uint32
	// gazeUpdated limits provider polling to once per frame, however many
	// eligible viewports the frame binds.
	gazeUpdated bool
}

// Manager routes host rendering events to per-device shading rate managers.
type Manager struct {
	mu       sync.Mutex
	enabled  bool
	contexts map[gpu.Device]*renderingContext
	provider gaze.Provider
	gazeAge  uint32
}

func NewManager() *Manager {
	return &Manager{
		enabled:  true,
		contexts: make(map[gpu.Device]*renderingContext),
	}
}

// SetEnabled toggles the injection globally. Disabling does not tear down
// state; the next viewport bind restores full-rate shading per command list.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enabled == enabled {
		return
	}
	m.enabled = enabled
	core.LogInfo("foveated shading rate injection enabled=%t", enabled)
}

func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// AttachGazeProvider installs (or refreshes) the gaze source. The host must
// re-attach periodically; a provider not refreshed for providerMaxAge
// presents is dropped and foveation falls back to the screen center.
func (m *Manager) AttachGazeProvider(p gaze.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.provider != p {
		core.LogInfo("gaze provider attached")
	}
	m.provider = p
	m.gazeAge = 0
}

// OnSetViewports is called while the host records a command list. Only the
// viewport covering the main scene is foveated: same aspect ratio as the
// swapchain and at least minViewportScale of its width. UI and shadow-pass
// viewports fail the check and get full rate.
func (m *Manager) OnSetViewports(device gpu.Device, cl gpu.CommandList, viewports []gpu.Viewport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, ok := m.contexts[device]
	if !ok || len(viewports) == 0 {
		return
	}
	if !m.enabled {
		ctx.rates.Disable(cl)
		return
	}

	viewport := viewports[0]
	if !eligible(viewport, ctx.presentWidth, ctx.presentHeight) {
		ctx.rates.Disable(cl)
		return
	}

	if m.provider != nil && !ctx.gazeUpdated {
		m.provider.Update()
		ctx.gazeUpdated = true
	}
	ctx.rates.Enable(cl, viewport, m.provider)
}

// OnExecuteCommandLists is called right before the host submits the lists.
func (m *Manager) OnExecuteCommandLists(device gpu.Device, queue gpu.Queue, lists []gpu.CommandList) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, ok := m.contexts[device]
	if !ok {
		return
	}
	ctx.rates.SyncQueue(queue, lists)
}

// OnFramePresent is called once per present. The first present for a device
// creates its rendering context; afterwards it tracks the swapchain size,
// advances the frame clock and ages the gaze provider.
func (m *Manager) OnFramePresent(device gpu.Device, width, height uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, ok := m.contexts[device]
	if !ok {
		core.LogInfo("new device presented %dx%d, creating rendering context", width, height)
		ctx = &renderingContext{
			rates: vrs.NewManager(device),
		}
		m.contexts[device] = ctx
	}
	ctx.presentWidth = width
	ctx.presentHeight = height
	ctx.gazeUpdated = false
	ctx.rates.Present()

	if m.provider != nil {
		m.gazeAge++
		if m.gazeAge > providerMaxAge {
			core.LogWarn("gaze provider went quiet, dropping it")
			m.provider = nil
			m.gazeAge = 0
		}
	}
}

// Rates exposes the shading rate manager for a device, for diagnostics.
func (m *Manager) Rates(device gpu.Device) *vrs.Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contexts[device]
	if !ok {
		return nil
	}
	return ctx.rates
}

func eligible(v gpu.Viewport, presentWidth, presentHeight uint32) bool {
	if v.Width <= 0 || v.Height <= 0 || presentWidth == 0 || presentHeight == 0 {
		return false
	}
	presentAspect := float64(presentWidth) / float64(presentHeight)
	viewportAspect := float64(v.Width) / float64(v.Height)
	diff := presentAspect - viewportAspect
	if diff < 0 {
		diff = -diff
	}
	if diff >= aspectEpsilon {
		return false
	}
	return v.Width >= minViewportScale*float32(presentWidth)
}
