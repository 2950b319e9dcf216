package sim

import (
	"github.com/cespare/xxhash/v2"
	"github.com/spaghettifunk/fovea/injector/gpu"
)

// Texture is a tile-rate texture held in host memory, one byte per tile.
// Fresh textures start in StateUnorderedAccess so the first generation
// dispatch needs no barrier.
type Texture struct {
	width    uint32
	height   uint32
	state    gpu.ResourceState
	pixels   []byte
	released bool
}

func newTexture(width, height uint32) *Texture {
	return &Texture{
		width:  width,
		height: height,
		state:  gpu.StateUnorderedAccess,
		pixels: make([]byte, width*height),
	}
}

func (t *Texture) Width() uint32 {
	return t.width
}

func (t *Texture) Height() uint32 {
	return t.height
}

func (t *Texture) Release() {
	t.pixels = nil
	t.released = true
}

func (t *Texture) State() gpu.ResourceState {
	return t.state
}

// Pixels returns a copy of the per-tile rate bytes, row major.
func (t *Texture) Pixels() []byte {
	out := make([]byte, len(t.pixels))
	copy(out, t.pixels)
	return out
}

// RateAt returns the rate stored for tile (x, y).
func (t *Texture) RateAt(x, y uint32) gpu.ShadingRate {
	return gpu.ShadingRate(t.pixels[y*t.width+x])
}

// Checksum is a content fingerprint of the current texture bytes.
func (t *Texture) Checksum() uint64 {
	return xxhash.Sum64(t.pixels)
}
