package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/fovea/injector/core"
	"github.com/spaghettifunk/fovea/injector/gpu"
)

// Queue wraps a host-owned graphics queue so the manager can order it
// behind rate map dispatches.
type Queue struct {
	handle vk.Queue
	ctx    *ComputeContext
}

func NewQueue(handle vk.Queue, device *Device) *Queue {
	return &Queue{
		handle: handle,
		ctx:    device.compute,
	}
}

// Wait orders future work on the queue behind the dispatch that produced
// fence value. Implemented as an empty submission waiting on the dispatch's
// signal semaphore; when the dispatch already retired there is nothing to
// wait for and the call is a no-op. When a second queue waits on the same
// in-flight dispatch the semaphore is already taken, so that queue is
// ordered with a host-side wait on the dispatch fence instead.
func (q *Queue) Wait(_ gpu.Fence, value uint64) {
	semaphore, pending := q.ctx.consumeWaitSemaphore(value)
	if !pending {
		return
	}
	if semaphore == vk.NullSemaphore {
		core.LogDebug("dispatch %d already has a waiter, blocking on its fence", value)
		q.ctx.waitHost(value)
		return
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{semaphore},
		PWaitDstStageMask:  []vk.PipelineStageFlags{vk.PipelineStageFlags(pipelineStageShadingRateAttachment)},
	}
	if res := vk.QueueSubmit(q.handle, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		core.LogError("failed to inject queue wait for fence %d: %s", value, VulkanResultString(res))
	}
}
