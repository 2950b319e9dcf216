/*
Package vrs owns the shading rate map cache and the cross-queue ordering that
makes the maps safe to consume. One Manager exists per device. The rendering
integration calls Enable/Disable while command lists are recorded, SyncQueue
right before they are submitted, and Present once per frame.
*/
package vrs

import (
	"sync"

	"github.com/spaghettifunk/fovea/injector/core"
	"github.com/spaghettifunk/fovea/injector/gaze"
	"github.com/spaghettifunk/fovea/injector/gpu"
	"github.com/spaghettifunk/fovea/injector/math"
)

// evictionAge is the number of consecutive presents a cache entry or a
// pending dependency may go unused before it is dropped.
const evictionAge = 100

// dimensionEpsilon guards the float-to-int truncation of viewport extents.
const dimensionEpsilon = 1e-3

// TiledResolution is a viewport size expressed in rate map texels, one texel
// per hardware shading rate tile.
type TiledResolution struct {
	Width  uint32
	Height uint32
}

// ShadingRateMap is one cache entry. Enable hands out copies, never the
// cached pointer, so callers hold an immutable snapshot of the texture,
// the fence value of the dispatch that last wrote it, and the generation
// it was written for.
type ShadingRateMap struct {
	Texture    gpu.Texture
	FenceValue uint64
	Generation uint64

	age uint32
}

// commandListDependency remembers that a command list consumes a map whose
// generation dispatch had not completed when the list was recorded.
type commandListDependency struct {
	fenceValue uint64
	age        uint32
}

// Stats is a snapshot of the manager counters.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Regenerations uint64
	Evictions     uint64
	QueueWaits    uint64
}

// Manager caches one shading rate map per tiled resolution and tracks which
// command lists still depend on in-flight generation dispatches.
type Manager struct {
	device  gpu.Device
	compute gpu.ComputeContext
	caps    gpu.Caps

	// supported stays false on devices without attachment-based shading
	// rates; every operation is then a no-op.
	supported bool

	mu            sync.Mutex
	maps          map[TiledResolution]*ShadingRateMap
	generation    uint64
	wasUsingGaze  bool
	hits          uint64
	misses        uint64
	regenerations uint64
	evictions     uint64

	depMu      sync.Mutex
	deps       map[gpu.CommandList]commandListDependency
	queueWaits uint64
}

func NewManager(device gpu.Device) *Manager {
	caps := device.Caps()
	m := &Manager{
		device: device,
		caps:   caps,
	}
	if !caps.ShadingRateSupported || caps.TileSize < 2 {
		core.LogWarn("device has no usable shading rate support, foveation disabled")
		return m
	}
	m.supported = true
	m.compute = device.Compute()
	m.maps = make(map[TiledResolution]*ShadingRateMap)
	m.deps = make(map[gpu.CommandList]commandListDependency)
	core.LogInfo("shading rate manager ready, tile size %dpx", caps.TileSize)
	return m
}

// Supported reports whether the device can do attachment-based shading rates.
func (m *Manager) Supported() bool {
	return m.supported
}

// Enable binds a foveated shading rate map to the command list. The map for
// the viewport's tiled resolution is created on first use and regenerated
// when the gaze moved across a frame boundary. When the provider has no
// fresh sample the cached content is reused as is, except for one final
// regeneration with the default center after the gaze source goes away.
func (m *Manager) Enable(cl gpu.CommandList, viewport gpu.Viewport, provider gaze.Provider) {
	if !m.supported {
		return
	}
	res := m.tiledResolution(viewport)
	if res.Width == 0 || res.Height == 0 {
		return
	}

	x, y, distance := float32(defaultCenterX), float32(defaultCenterY), gaze.DefaultDistanceMM
	gazeAvailable := false
	if provider != nil {
		if gx, gy, gd, ok := provider.Gaze(); ok {
			x, y, distance = gx, gy, gd
			gazeAvailable = true
		}
	}

	m.mu.Lock()
	regenerate := gazeAvailable || m.wasUsingGaze
	m.wasUsingGaze = gazeAvailable
	snapshot := m.requestShadingRateMap(res, constantsFor(res, x, y, distance), regenerate)
	m.mu.Unlock()

	cl.SetShadingRateImage(snapshot.Texture)
	cl.SetShadingRate(gpu.Rate1x1, [2]gpu.Combiner{gpu.CombinerMax, gpu.CombinerMax})

	// Only order the consumer behind the dispatch when the GPU has not
	// finished it yet.
	if !m.compute.Completed(snapshot.FenceValue) {
		m.depMu.Lock()
		m.deps[cl] = commandListDependency{fenceValue: snapshot.FenceValue}
		m.depMu.Unlock()
	}
}

// Disable restores full-rate shading on the command list and unbinds the
// rate image. Any dependency recorded for the list stays until SyncQueue or
// aging clears it; a wait on completed work is harmless.
func (m *Manager) Disable(cl gpu.CommandList) {
	if !m.supported {
		return
	}
	cl.SetShadingRate(gpu.Rate1x1, [2]gpu.Combiner{gpu.CombinerPassthrough, gpu.CombinerPassthrough})
	cl.SetShadingRateImage(nil)
}

// Present advances the frame clock: both caches age by one, entries unused
// for more than evictionAge presents are dropped, then the generation
// counter moves so the next gaze-driven Enable regenerates.
func (m *Manager) Present() {
	if !m.supported {
		return
	}

	m.mu.Lock()
	for res, entry := range m.maps {
		entry.age++
		if entry.age > evictionAge {
			core.LogDebug("evicting %dx%d rate map after %d unused frames", res.Width, res.Height, entry.age)
			entry.Texture.Release()
			delete(m.maps, res)
			m.evictions++
		}
	}
	m.mu.Unlock()

	m.depMu.Lock()
	for cl, dep := range m.deps {
		dep.age++
		if dep.age > evictionAge {
			delete(m.deps, cl)
			continue
		}
		m.deps[cl] = dep
	}
	m.depMu.Unlock()

	m.mu.Lock()
	m.generation++
	m.mu.Unlock()
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	s := Stats{
		Hits:          m.hits,
		Misses:        m.misses,
		Regenerations: m.regenerations,
		Evictions:     m.evictions,
	}
	m.mu.Unlock()
	m.depMu.Lock()
	s.QueueWaits = m.queueWaits
	m.depMu.Unlock()
	return s
}

// Snapshot returns a copy of the cached entry for the tiled resolution,
// for diagnostics such as the preview dump.
func (m *Manager) Snapshot(res TiledResolution) (ShadingRateMap, bool) {
	if !m.supported {
		return ShadingRateMap{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.maps[res]
	if !ok {
		return ShadingRateMap{}, false
	}
	return *entry, true
}

// ResolutionFor converts a viewport into its rate map key.
func (m *Manager) ResolutionFor(v gpu.Viewport) TiledResolution {
	return m.tiledResolution(v)
}

func (m *Manager) tiledResolution(v gpu.Viewport) TiledResolution {
	tile := m.caps.TileSize
	return TiledResolution{
		Width:  math.AlignUp(uint32(v.Width+dimensionEpsilon), tile) / tile,
		Height: math.AlignUp(uint32(v.Height+dimensionEpsilon), tile) / tile,
	}
}
