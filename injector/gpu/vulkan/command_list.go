package vulkan

import (
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/fovea/injector/gpu"
)

// CommandList wraps one host graphics command buffer. The loader bindings
// carry no VK_KHR_fragment_shading_rate entry points, so the rate state is
// staged here and the hooking layer applies it when it rewrites the render
// pass to carry the rate attachment.
type CommandList struct {
	Handle vk.CommandBuffer

	mu        sync.Mutex
	rate      gpu.ShadingRate
	combiners [2]gpu.Combiner
	rateImage *Texture
}

func NewCommandList(handle vk.CommandBuffer) *CommandList {
	return &CommandList{
		Handle: handle,
	}
}

func (l *CommandList) SetShadingRate(rate gpu.ShadingRate, combiners [2]gpu.Combiner) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rate = rate
	l.combiners = combiners
}

func (l *CommandList) SetShadingRateImage(t gpu.Texture) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t == nil {
		l.rateImage = nil
		return
	}
	l.rateImage = t.(*Texture)
}

// PendingState returns the staged rate binding for the render pass rewrite.
// A nil view means full rate without an attachment.
func (l *CommandList) PendingState() (gpu.ShadingRate, [2]gpu.Combiner, vk.ImageView) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rateImage == nil {
		return l.rate, l.combiners, vk.NullImageView
	}
	return l.rate, l.combiners, l.rateImage.view
}
