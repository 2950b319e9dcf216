/*
Package gpu is the boundary between the VRS manager and a GPU submission
context. The manager only ever talks to these interfaces; the sim package
implements them in software and the vulkan package implements them against
real hardware.
*/
package gpu

// Texture is a 2D single-channel tile-rate texture owned by the cache.
type Texture interface {
	Width() uint32
	Height() uint32
	// Release frees the underlying GPU memory. The texture must not be used
	// afterwards.
	Release()
}

// CommandBuffer records work for the manager's asynchronous compute context.
// Recording is CPU-only and cheap; nothing executes until Submit.
type CommandBuffer interface {
	// Transition inserts a resource state barrier for the texture.
	Transition(t Texture, from, to ResourceState)
	// GenerateRateMap records one compute dispatch (8x8 thread groups over the
	// tile grid) filling the texture per the RateMapConstants contract.
	// The texture must be in StateUnorderedAccess.
	GenerateRateMap(t Texture, c RateMapConstants)
}

// Fence identifies a monotonically increasing completion counter so queues
// belonging to the same device can wait on it.
type Fence interface {
	// CompletedValue returns the highest fence value the GPU has reached.
	CompletedValue() uint64
}

// ComputeContext owns a compute-capable queue used to produce rate maps.
type ComputeContext interface {
	// GetCommandList returns a recordable command buffer backed by a reusable
	// allocator.
	GetCommandList() (CommandBuffer, error)
	// Submit executes the recorded work asynchronously and returns the fence
	// value that will be reached once it completes on the GPU.
	Submit(cb CommandBuffer) (uint64, error)
	// Completed reports whether the context's device-global completion counter
	// has reached the given value. Never blocks.
	Completed(value uint64) bool
	// Fence returns the completion fence for cross-queue waits.
	Fence() Fence
}

// Queue is a host-owned submission queue the manager injects waits into.
type Queue interface {
	// Wait enqueues a GPU-side wait: work submitted to the queue after this
	// call must not begin execution before the fence reaches value. The call
	// itself returns immediately.
	Wait(f Fence, value uint64)
}

// CommandList is the identity of a host command list plus the shading rate
// binding surface the manager drives. Implementations must be comparable
// (pointer receivers) since the manager keys dependency records on them.
type CommandList interface {
	// SetShadingRate sets the per-drawcall rate and the two combiner stages.
	SetShadingRate(rate ShadingRate, combiners [2]Combiner)
	// SetShadingRateImage binds the rate texture; nil clears the binding.
	SetShadingRateImage(t Texture)
}

// Device creates the resources the manager needs.
type Device interface {
	Caps() Caps
	// CreateRateTexture allocates a width x height single-byte-per-tile
	// texture with a writable view, in StateUnorderedAccess.
	CreateRateTexture(width, height uint32) (Texture, error)
	// Compute returns the device's rate-map generation context. The same
	// context is returned for the lifetime of the device.
	Compute() ComputeContext
}
