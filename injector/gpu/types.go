package gpu

// ShadingRate encodes a coarse shading rate as (log2(width) << 2) | log2(height),
// matching the axis encoding used by the major graphics APIs.
type ShadingRate uint8

const (
	Rate1x1 ShadingRate = 0x0
	Rate1x2 ShadingRate = 0x1
	Rate2x1 ShadingRate = 0x4
	Rate2x2 ShadingRate = 0x5
	Rate2x4 ShadingRate = 0x6
	Rate4x2 ShadingRate = 0x9
	Rate4x4 ShadingRate = 0xa
)

func (r ShadingRate) String() string {
	switch r {
	case Rate1x1:
		return "1x1"
	case Rate1x2:
		return "1x2"
	case Rate2x1:
		return "2x1"
	case Rate2x2:
		return "2x2"
	case Rate2x4:
		return "2x4"
	case Rate4x2:
		return "4x2"
	case Rate4x4:
		return "4x4"
	}
	return "unknown"
}

// Combiner selects how two shading rate sources merge into one.
type Combiner uint8

const (
	CombinerPassthrough Combiner = iota
	CombinerOverride
	CombinerMin
	// CombinerMax picks the coarsest of the two rates.
	CombinerMax
	CombinerSum
)

// ResourceState is the logical state a rate texture must be in for a given use.
type ResourceState int

const (
	// StateUnorderedAccess allows the generation dispatch to write the texture.
	StateUnorderedAccess ResourceState = iota
	// StateShadingRateSource allows the rasterizer to read the texture.
	StateShadingRateSource
)

// Caps describes what the device can do for variable rate shading.
type Caps struct {
	// ShadingRateSupported is true when the device supports an attachment-based
	// shading rate (D3D12 VRS tier 2, VK_KHR_fragment_shading_rate).
	ShadingRateSupported bool
	// TileSize is the edge length, in pixels, of the screen block covered by
	// one texel of the rate map.
	TileSize uint32
}

// Viewport mirrors the host's viewport-set parameters.
type Viewport struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
}

// RateMapConstants parameterizes one rate-map generation dispatch.
// Center and ring radii are expressed in tile units.
//
// The classification contract, per tile (x, y):
//
//	d := distance((x, y), (CenterX, CenterY))
//	d >= OuterRing             -> RateLow
//	OuterRing > d >= InnerRing -> RateMedium
//	d < InnerRing              -> RateFull
//
// Both comparisons are inclusive so a tile exactly on a ring joins the
// coarser band. Backends must match this bit for bit.
type RateMapConstants struct {
	CenterX    float32
	CenterY    float32
	InnerRing  float32
	OuterRing  float32
	RateFull   ShadingRate
	RateMedium ShadingRate
	RateLow    ShadingRate
}
