package vrs_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/fovea/injector/gpu/sim"
	"github.com/spaghettifunk/fovea/injector/vrs"
)

func TestWritePreviewEncodesUpscaledPNG(t *testing.T) {
	device := sim.NewDevice()
	m := vrs.NewManager(device)

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(640, 480), nil)
	texture := cl.ShadingRateImage()
	require.NotNil(t, texture)

	var buf bytes.Buffer
	require.NoError(t, vrs.WritePreview(&buf, texture, 4))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, int(texture.Width())*4, img.Bounds().Dx())
	assert.Equal(t, int(texture.Height())*4, img.Bounds().Dy())
}

func TestSnapshotExposesCachedEntries(t *testing.T) {
	device := sim.NewDevice()
	m := vrs.NewManager(device)

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), nil)

	snapshot, ok := m.Snapshot(m.ResolutionFor(viewport(1920, 1080)))
	require.True(t, ok)
	assert.Equal(t, uint32(120), snapshot.Texture.Width())
	assert.Equal(t, uint64(1), snapshot.FenceValue)

	_, ok = m.Snapshot(vrs.TiledResolution{Width: 1, Height: 1})
	assert.False(t, ok)
}
