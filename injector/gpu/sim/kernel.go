package sim

import (
	"math"

	"github.com/spaghettifunk/fovea/injector/gpu"
)

// runRateMapKernel is the CPU twin of the foveation compute shader. It must
// match the classification contract on gpu.RateMapConstants exactly,
// including the inclusive comparisons at both ring boundaries.
func runRateMapKernel(t *Texture, c gpu.RateMapConstants) {
	for y := uint32(0); y < t.height; y++ {
		for x := uint32(0); x < t.width; x++ {
			dx := float64(x) - float64(c.CenterX)
			dy := float64(y) - float64(c.CenterY)
			d := math.Sqrt(dx*dx + dy*dy)

			rate := c.RateFull
			if d >= float64(c.OuterRing) {
				rate = c.RateLow
			} else if d >= float64(c.InnerRing) {
				rate = c.RateMedium
			}
			t.pixels[y*t.width+x] = byte(rate)
		}
	}
}
