/*
Package sim is a software implementation of the gpu interfaces. It executes
the rate-map kernel on the CPU and models GPU asynchrony with a completion
counter that can lag behind submissions, which makes the synchronization
paths of the manager fully testable on machines without a capable GPU.
*/
package sim

import (
	"fmt"

	"github.com/spaghettifunk/fovea/injector/gpu"
)

const defaultTileSize uint32 = 16

type Device struct {
	caps    gpu.Caps
	compute *ComputeContext
}

type DeviceOption func(*Device)

// WithTileSize overrides the simulated shading-rate tile size.
func WithTileSize(size uint32) DeviceOption {
	return func(d *Device) {
		d.caps.TileSize = size
	}
}

// WithoutShadingRate simulates a device with no VRS capability.
func WithoutShadingRate() DeviceOption {
	return func(d *Device) {
		d.caps.ShadingRateSupported = false
	}
}

// WithManualCompletion keeps submissions "in flight" until CompleteUpTo is
// called on the compute context.
func WithManualCompletion() DeviceOption {
	return func(d *Device) {
		d.compute.manual = true
	}
}

func NewDevice(options ...DeviceOption) *Device {
	device := &Device{
		caps: gpu.Caps{
			ShadingRateSupported: true,
			TileSize:             defaultTileSize,
		},
		compute: newComputeContext(),
	}
	for _, option := range options {
		option(device)
	}
	return device
}

func (d *Device) Caps() gpu.Caps {
	return d.caps
}

func (d *Device) CreateRateTexture(width, height uint32) (gpu.Texture, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("rate texture cannot have a zero dimension (%dx%d)", width, height)
	}
	return newTexture(width, height), nil
}

func (d *Device) Compute() gpu.ComputeContext {
	return d.compute
}

// ComputeSim exposes the simulation-only surface of the compute context
// (manual completion, hazard log) without a type assertion at every call
// site.
func (d *Device) ComputeSim() *ComputeContext {
	return d.compute
}
