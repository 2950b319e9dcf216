package vrs

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/fovea/injector/core"
	"github.com/spaghettifunk/fovea/injector/gpu"
)

// pixelSource is satisfied by backends with CPU-readable rate textures,
// which today means the software backend.
type pixelSource interface {
	Width() uint32
	Height() uint32
	Pixels() []byte
}

func rateToGray(rate byte) uint8 {
	switch gpu.ShadingRate(rate) {
	case gpu.Rate1x1:
		return 0xff
	case gpu.Rate2x2:
		return 0xaa
	case gpu.Rate4x4:
		return 0x55
	}
	return 0x00
}

// WritePreview encodes the rate texture as a grayscale PNG, brighter where
// shading is denser, upscaled so the tiles are visible. Diagnostics only.
func WritePreview(w io.Writer, t gpu.Texture, scale int) error {
	source, ok := t.(pixelSource)
	if !ok {
		return fmt.Errorf("%w: rate texture content is not CPU readable", core.ErrNotSupported)
	}
	if scale < 1 {
		scale = 1
	}

	width := int(source.Width())
	height := int(source.Height())
	tiles := image.NewGray(image.Rect(0, 0, width, height))
	pixels := source.Pixels()
	for i, rate := range pixels {
		tiles.Pix[i] = rateToGray(rate)
	}

	out := image.NewGray(image.Rect(0, 0, width*scale, height*scale))
	draw.NearestNeighbor.Scale(out, out.Bounds(), tiles, tiles.Bounds(), draw.Src, nil)
	return png.Encode(w, out)
}

// WritePreviewFile is WritePreview to a file path.
func WritePreviewFile(path string, t gpu.Texture, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview file %s: %w", path, err)
	}
	defer f.Close()
	if err := WritePreview(f, t, scale); err != nil {
		return fmt.Errorf("failed to write preview %s: %w", path, err)
	}
	return nil
}
