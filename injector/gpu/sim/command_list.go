package sim

import (
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/fovea/injector/gpu"
)

// CommandList is a host command list stand-in: an identity plus the shading
// rate state the manager binds onto it.
type CommandList struct {
	id uuid.UUID

	mu        sync.Mutex
	rate      gpu.ShadingRate
	combiners [2]gpu.Combiner
	rateImage gpu.Texture
}

func NewCommandList() *CommandList {
	return &CommandList{
		id: uuid.New(),
	}
}

func (l *CommandList) ID() uuid.UUID {
	return l.id
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
	l.rateImage = t
}

// ShadingRate returns the bound per-drawcall rate and combiners.
func (l *CommandList) ShadingRate() (gpu.ShadingRate, [2]gpu.Combiner) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rate, l.combiners
}

// ShadingRateImage returns the bound rate texture, nil when cleared.
func (l *CommandList) ShadingRateImage() gpu.Texture {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rateImage
}
