package vrs

import (
	"github.com/spaghettifunk/fovea/injector/core"
	"github.com/spaghettifunk/fovea/injector/gaze"
	"github.com/spaghettifunk/fovea/injector/gpu"
	"github.com/spaghettifunk/fovea/injector/math"
)

const (
	defaultCenterX = 0.5
	defaultCenterY = 0.5

	// Ring radii as fractions of the viewport height, before the distance
	// scale. Values picked against a 27" 1440p panel at arm's length.
	innerRingFraction = 0.25
	outerRingFraction = 0.8
)

// constantsFor translates a normalized gaze point into the dispatch
// constants. Everything is in tile units. Moving closer to the screen grows
// the full-rate region, moving away shrinks it.
func constantsFor(res TiledResolution, x, y, distanceMM float32) gpu.RateMapConstants {
	scale := math.Clamp(distanceMM/gaze.DefaultDistanceMM, 0.1, 1.5)
	height := float32(res.Height)
	return gpu.RateMapConstants{
		CenterX:    x * float32(res.Width),
		CenterY:    y * height,
		InnerRing:  innerRingFraction * height * scale,
		OuterRing:  outerRingFraction * height * scale,
		RateFull:   gpu.Rate1x1,
		RateMedium: gpu.Rate2x2,
		RateLow:    gpu.Rate4x4,
	}
}

// requestShadingRateMap returns a snapshot of the entry for res, creating it
// on first use. An existing entry is regenerated only when asked to and its
// content predates the current frame, so at most one dispatch runs per
// resolution per frame no matter how many command lists consume the map.
// Caller holds m.mu.
func (m *Manager) requestShadingRateMap(res TiledResolution, c gpu.RateMapConstants, regenerate bool) ShadingRateMap {
	if entry, ok := m.maps[res]; ok {
		entry.age = 0
		if regenerate && entry.Generation != m.generation {
			m.updateShadingRateMap(entry, c, false)
		}
		m.hits++
		return *entry
	}

	texture, err := m.device.CreateRateTexture(res.Width, res.Height)
	if err != nil {
		core.LogFatal("failed to create %dx%d shading rate texture: %s", res.Width, res.Height, err.Error())
	}
	entry := &ShadingRateMap{Texture: texture}
	m.updateShadingRateMap(entry, c, true)
	m.maps[res] = entry
	m.misses++
	return *entry
}

// updateShadingRateMap records and submits one generation dispatch for the
// entry's texture. A fresh texture is already writable; a reused one must
// leave the shading rate source state first. Caller holds m.mu.
func (m *Manager) updateShadingRateMap(entry *ShadingRateMap, c gpu.RateMapConstants, fresh bool) {
	cb, err := m.compute.GetCommandList()
	if err != nil {
		core.LogFatal("failed to acquire a compute command list: %s", err.Error())
	}
	if !fresh {
		cb.Transition(entry.Texture, gpu.StateShadingRateSource, gpu.StateUnorderedAccess)
	}
	cb.GenerateRateMap(entry.Texture, c)
	cb.Transition(entry.Texture, gpu.StateUnorderedAccess, gpu.StateShadingRateSource)

	fenceValue, err := m.compute.Submit(cb)
	if err != nil {
		core.LogFatal("failed to submit the rate map dispatch: %s", err.Error())
	}
	entry.FenceValue = fenceValue
	entry.Generation = m.generation
	if !fresh {
		m.regenerations++
	}
	core.LogDebug("rate map %dx%d generated around (%.1f, %.1f), fence %d",
		entry.Texture.Width(), entry.Texture.Height(), c.CenterX, c.CenterY, fenceValue)
}
