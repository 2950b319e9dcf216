/*
Package testbed simulates the host application the injector would normally
hook into: every frame it records a main scene pass and a UI pass, submits
both, and presents. It runs entirely on the software gpu backend.
*/
package testbed

import (
	"github.com/spaghettifunk/fovea/injector/gpu"
	"github.com/spaghettifunk/fovea/injector/gpu/sim"
	"github.com/spaghettifunk/fovea/injector/injection"
)

type Host struct {
	device *sim.Device
	queue  *sim.Queue
	inject *injection.Manager

	width  uint32
	height uint32
	frames uint64
}

func NewHost(inject *injection.Manager, width, height uint32, options ...sim.DeviceOption) *Host {
	return &Host{
		device: sim.NewDevice(options...),
		queue:  sim.NewQueue(),
		inject: inject,
		width:  width,
		height: height,
	}
}

// Frame records and submits one simulated frame. The main pass uses a
// swapchain-sized viewport and gets foveated; the UI pass uses a small
// overlay viewport and must stay at full rate.
func (h *Host) Frame() {
	scenePass := sim.NewCommandList()
	uiPass := sim.NewCommandList()

	h.inject.OnSetViewports(h.device, scenePass, []gpu.Viewport{{
		Width:  float32(h.width),
		Height: float32(h.height),
	}})
	h.inject.OnSetViewports(h.device, uiPass, []gpu.Viewport{{
		Width:  480,
		Height: 270,
	}})

	h.inject.OnExecuteCommandLists(h.device, h.queue, []gpu.CommandList{scenePass, uiPass})
	h.inject.OnFramePresent(h.device, h.width, h.height)
	h.frames++
}

func (h *Host) Device() *sim.Device {
	return h.device
}

func (h *Host) Queue() *sim.Queue {
	return h.queue
}

// SceneViewport is the viewport of the foveated pass.
func (h *Host) SceneViewport() gpu.Viewport {
	return gpu.Viewport{
		Width:  float32(h.width),
		Height: float32(h.height),
	}
}

func (h *Host) Frames() uint64 {
	return h.frames
}
