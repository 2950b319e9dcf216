package vulkan

import (
	"fmt"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/fovea/injector/containers"
	"github.com/spaghettifunk/fovea/injector/core"
	"github.com/spaghettifunk/fovea/injector/gpu"
)

// maxInFlight bounds concurrent generation dispatches. One per cached
// resolution per frame is the realistic ceiling; 16 leaves headroom.
const maxInFlight = 16

// hostWaitTimeoutNs bounds host-side fence waits on the slow paths. A
// dispatch over a few-kilobyte grid that does not signal within a second
// means a hung device, not a busy one.
const hostWaitTimeoutNs uint64 = 1_000_000_000

// inFlightSubmission tracks one dispatch from QueueSubmit to fence signal.
// The semaphore lets a consumer queue order itself behind the dispatch; it
// is signaled exactly once and waited at most once.
type inFlightSubmission struct {
	value         uint64
	fence         vk.Fence
	semaphore     vk.Semaphore
	commandBuffer vk.CommandBuffer
	descriptorSet vk.DescriptorSet
	consumed      bool
}

// ComputeContext owns the compute queue, pool and pipeline producing rate
// maps, and maps Vulkan's per-submission fences onto the monotonically
// increasing completion counter the manager works with.
type ComputeContext struct {
	device         *Device
	queue          vk.Queue
	commandPool    vk.CommandPool
	descriptorPool vk.DescriptorPool
	pipeline       *generatePipeline

	mu         sync.Mutex
	lastIssued uint64
	completed  uint64
	inFlight   *containers.RingQueue[*inFlightSubmission]
	fenceView  *Fence
}

func newComputeContext(d *Device) (*ComputeContext, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.config.ComputeQueueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}
	var commandPool vk.CommandPool
	if res := vk.CreateCommandPool(d.config.LogicalDevice, &poolCreateInfo, d.config.Allocator, &commandPool); res != vk.Success {
		return nil, fmt.Errorf("failed to create compute command pool: %s", VulkanResultString(res))
	}

	descriptorPoolCreateInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       maxInFlight,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeStorageImage,
			DescriptorCount: maxInFlight,
		}},
	}
	var descriptorPool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(d.config.LogicalDevice, &descriptorPoolCreateInfo, d.config.Allocator, &descriptorPool); res != vk.Success {
		vk.DestroyCommandPool(d.config.LogicalDevice, commandPool, d.config.Allocator)
		return nil, fmt.Errorf("failed to create descriptor pool: %s", VulkanResultString(res))
	}

	pipeline, err := newGeneratePipeline(d)
	if err != nil {
		vk.DestroyDescriptorPool(d.config.LogicalDevice, descriptorPool, d.config.Allocator)
		vk.DestroyCommandPool(d.config.LogicalDevice, commandPool, d.config.Allocator)
		return nil, err
	}

	ctx := &ComputeContext{
		device:         d,
		queue:          d.config.ComputeQueue,
		commandPool:    commandPool,
		descriptorPool: descriptorPool,
		pipeline:       pipeline,
		inFlight:       containers.NewRingQueue[*inFlightSubmission](maxInFlight),
	}
	ctx.fenceView = &Fence{ctx: ctx}
	return ctx, nil
}

// GetCommandList allocates a one-time command buffer and begins recording.
func (c *ComputeContext) GetCommandList() (gpu.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	handles := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(c.device.config.LogicalDevice, &allocateInfo, handles); res != vk.Success {
		return nil, fmt.Errorf("failed to allocate command buffer: %s", VulkanResultString(res))
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(handles[0], &beginInfo); res != vk.Success {
		vk.FreeCommandBuffers(c.device.config.LogicalDevice, c.commandPool, 1, handles)
		return nil, fmt.Errorf("failed to begin command buffer: %s", VulkanResultString(res))
	}
	return &CommandBuffer{ctx: c, handle: handles[0]}, nil
}

// Submit ends the recording and hands it to the compute queue with a fresh
// fence and a signal semaphore, then returns the fence value the submission
// maps to.
func (c *ComputeContext) Submit(cb gpu.CommandBuffer) (uint64, error) {
	buffer, ok := cb.(*CommandBuffer)
	if !ok || buffer.ctx != c {
		return 0, fmt.Errorf("command buffer was not recorded on this context")
	}
	if res := vk.EndCommandBuffer(buffer.handle); res != vk.Success {
		return 0, fmt.Errorf("failed to end command buffer: %s", VulkanResultString(res))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollLocked()

	logical := c.device.config.LogicalDevice
	// A full ring is a load condition, not a fault: drain the oldest
	// dispatch on the host instead of failing the submission.
	for c.inFlight.IsFull() {
		head, _ := c.inFlight.Peek()
		core.LogWarn("dispatch ring full, draining submission %d", head.value)
		if res := vk.WaitForFences(logical, 1, []vk.Fence{head.fence}, vk.True, hostWaitTimeoutNs); res != vk.Success {
			return 0, fmt.Errorf("failed to drain the dispatch ring: %s", VulkanResultString(res))
		}
		c.pollLocked()
	}
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	var fence vk.Fence
	if res := vk.CreateFence(logical, &fenceCreateInfo, c.device.config.Allocator, &fence); res != vk.Success {
		return 0, fmt.Errorf("failed to create submission fence: %s", VulkanResultString(res))
	}
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(logical, &semaphoreCreateInfo, c.device.config.Allocator, &semaphore); res != vk.Success {
		vk.DestroyFence(logical, fence, c.device.config.Allocator)
		return 0, fmt.Errorf("failed to create submission semaphore: %s", VulkanResultString(res))
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{buffer.handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{semaphore},
	}
	if res := vk.QueueSubmit(c.queue, 1, []vk.SubmitInfo{submitInfo}, fence); res != vk.Success {
		vk.DestroySemaphore(logical, semaphore, c.device.config.Allocator)
		vk.DestroyFence(logical, fence, c.device.config.Allocator)
		if res == vk.ErrorDeviceLost {
			return 0, core.ErrDeviceLost
		}
		return 0, fmt.Errorf("failed to submit rate map dispatch: %s", VulkanResultString(res))
	}

	c.lastIssued++
	c.inFlight.Enqueue(&inFlightSubmission{
		value:         c.lastIssued,
		fence:         fence,
		semaphore:     semaphore,
		commandBuffer: buffer.handle,
		descriptorSet: buffer.descriptorSet,
	})
	return c.lastIssued, nil
}

func (c *ComputeContext) Completed(value uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollLocked()
	return value <= c.completed
}

func (c *ComputeContext) Fence() gpu.Fence {
	return c.fenceView
}

// pollLocked retires in-flight submissions whose fence has signaled, in
// submission order, and recycles their resources. Caller holds c.mu.
func (c *ComputeContext) pollLocked() {
	logical := c.device.config.LogicalDevice
	for !c.inFlight.IsEmpty() {
		head, _ := c.inFlight.Peek()
		if vk.GetFenceStatus(logical, head.fence) != vk.Success {
			return
		}
		c.inFlight.Dequeue()
		c.completed = head.value

		vk.DestroyFence(logical, head.fence, c.device.config.Allocator)
		vk.DestroySemaphore(logical, head.semaphore, c.device.config.Allocator)
		vk.FreeCommandBuffers(logical, c.commandPool, 1, []vk.CommandBuffer{head.commandBuffer})
		if head.descriptorSet != vk.NullDescriptorSet {
			vk.FreeDescriptorSets(logical, c.descriptorPool, 1, &head.descriptorSet)
		}
	}
}

// consumeWaitSemaphore hands out the signal semaphore for the submission
// with the given fence value. The second result is false when the
// submission already retired and nothing needs ordering. A null semaphore
// with true means the submission is still in flight but its semaphore
// already went to another consumer queue; such callers must order
// themselves through waitHost instead.
func (c *ComputeContext) consumeWaitSemaphore(value uint64) (vk.Semaphore, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollLocked()
	for i := 0; i < c.inFlight.Len(); i++ {
		sub, _ := c.inFlight.At(i)
		if sub.value != value {
			continue
		}
		if sub.consumed {
			return vk.NullSemaphore, true
		}
		sub.consumed = true
		return sub.semaphore, true
	}
	return vk.NullSemaphore, false
}

// waitHost blocks until the submission with the given fence value retires.
// Fallback for the second consumer queue of one in-flight dispatch: a
// binary semaphore cannot be waited twice, and work submitted after this
// returns is trivially ordered behind the finished dispatch.
func (c *ComputeContext) waitHost(value uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollLocked()
	for i := 0; i < c.inFlight.Len(); i++ {
		sub, _ := c.inFlight.At(i)
		if sub.value != value {
			continue
		}
		if res := vk.WaitForFences(c.device.config.LogicalDevice, 1, []vk.Fence{sub.fence}, vk.True, hostWaitTimeoutNs); res != vk.Success {
			core.LogError("host wait for dispatch %d failed: %s", value, VulkanResultString(res))
			return
		}
		c.pollLocked()
		return
	}
}

// prepareTexture moves a freshly created image from the undefined layout to
// general so the first dispatch can write it. Runs synchronously; texture
// creation is rare and already a slow path.
func (c *ComputeContext) prepareTexture(t *Texture) error {
	cb, err := c.GetCommandList()
	if err != nil {
		return err
	}
	buffer := cb.(*CommandBuffer)
	buffer.barrier(t,
		vk.ImageLayoutUndefined, vk.ImageLayoutGeneral,
		0, vk.AccessFlags(vk.AccessShaderWriteBit),
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit))
	value, err := c.Submit(cb)
	if err != nil {
		return err
	}
	c.waitIdleFor(value)
	return nil
}

func (c *ComputeContext) waitIdleFor(value uint64) {
	if res := vk.QueueWaitIdle(c.queue); res != vk.Success {
		core.LogError("compute queue wait failed: %s", VulkanResultString(res))
		return
	}
	c.mu.Lock()
	c.pollLocked()
	c.mu.Unlock()
	if !c.Completed(value) {
		core.LogError("submission %d still pending after queue idle", value)
	}
}

func (c *ComputeContext) destroy() {
	logical := c.device.config.LogicalDevice
	vk.QueueWaitIdle(c.queue)
	c.mu.Lock()
	c.pollLocked()
	c.mu.Unlock()
	if c.pipeline != nil {
		c.pipeline.destroy(c.device)
		c.pipeline = nil
	}
	vk.DestroyDescriptorPool(logical, c.descriptorPool, c.device.config.Allocator)
	vk.DestroyCommandPool(logical, c.commandPool, c.device.config.Allocator)
}

// Fence adapts the context's completion counter for consumer queues.
type Fence struct {
	ctx *ComputeContext
}

func (f *Fence) CompletedValue() uint64 {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	f.ctx.pollLocked()
	return f.ctx.completed
}
