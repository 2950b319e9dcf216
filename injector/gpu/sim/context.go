package sim

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/fovea/injector/gpu"
)

// ComputeContext executes recorded command buffers immediately at Submit and
// assigns consecutive fence values. In manual mode the completion counter
// does not advance until CompleteUpTo, which models a GPU that is still
// working on the dispatch when the host moves on.
type ComputeContext struct {
	mu         sync.Mutex
	lastIssued uint64
	completed  uint64
	manual     bool
	hazards    []string
	fence      *Fence
}

func newComputeContext() *ComputeContext {
	ctx := &ComputeContext{}
	ctx.fence = &Fence{ctx: ctx}
	return ctx
}

func (c *ComputeContext) GetCommandList() (gpu.CommandBuffer, error) {
	return &CommandBuffer{ctx: c}, nil
}

func (c *ComputeContext) Submit(cb gpu.CommandBuffer) (uint64, error) {
	buffer, ok := cb.(*CommandBuffer)
	if !ok || buffer.ctx != c {
		return 0, fmt.Errorf("command buffer was not recorded on this context")
	}
	if buffer.submitted {
		return 0, fmt.Errorf("command buffer was already submitted")
	}
	buffer.submitted = true

	c.mu.Lock()
	defer c.mu.Unlock()

	// Content becomes visible right away; only the completion counter models
	// the in-flight window.
	for _, op := range buffer.ops {
		op()
	}
	c.lastIssued++
	if !c.manual {
		c.completed = c.lastIssued
	}
	return c.lastIssued, nil
}

func (c *ComputeContext) Completed(value uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return value <= c.completed
}

func (c *ComputeContext) Fence() gpu.Fence {
	return c.fence
}

// CompleteUpTo retires in-flight submissions up to the given fence value.
// Only meaningful in manual completion mode.
func (c *ComputeContext) CompleteUpTo(value uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value > c.lastIssued {
		value = c.lastIssued
	}
	if value > c.completed {
		c.completed = value
	}
}

// LastIssued returns the fence value of the most recent submission.
func (c *ComputeContext) LastIssued() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastIssued
}

// Hazards returns the state violations detected while executing submissions,
// such as a dispatch targeting a texture left in the consumption state.
func (c *ComputeContext) Hazards() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.hazards))
	copy(out, c.hazards)
	return out
}

func (c *ComputeContext) recordHazard(format string, args ...interface{}) {
	c.hazards = append(c.hazards, fmt.Sprintf(format, args...))
}

// Fence exposes the context's completion counter to consumer queues.
type Fence struct {
	ctx *ComputeContext
}

func (f *Fence) CompletedValue() uint64 {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	return f.ctx.completed
}

// CommandBuffer collects operations as closures; Submit runs them in order.
type CommandBuffer struct {
	ctx       *ComputeContext
	ops       []func()
	submitted bool
}

func (b *CommandBuffer) Transition(t gpu.Texture, from, to gpu.ResourceState) {
	texture := t.(*Texture)
	b.ops = append(b.ops, func() {
		if texture.released {
			b.ctx.recordHazard("transition on released texture %dx%d", texture.width, texture.height)
			return
		}
		if texture.state != from {
			b.ctx.recordHazard("transition expected state %d but texture %dx%d is in %d",
				from, texture.width, texture.height, texture.state)
		}
		texture.state = to
	})
}

func (b *CommandBuffer) GenerateRateMap(t gpu.Texture, c gpu.RateMapConstants) {
	texture := t.(*Texture)
	b.ops = append(b.ops, func() {
		if texture.released {
			b.ctx.recordHazard("dispatch on released texture %dx%d", texture.width, texture.height)
			return
		}
		if texture.state != gpu.StateUnorderedAccess {
			b.ctx.recordHazard("dispatch on texture %dx%d in state %d, want unordered access",
				texture.width, texture.height, texture.state)
		}
		runRateMapKernel(texture, c)
	})
}
