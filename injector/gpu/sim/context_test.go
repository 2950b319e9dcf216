package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/fovea/injector/gpu"
)

func generate(t *testing.T, device *Device, texture gpu.Texture, c gpu.RateMapConstants) uint64 {
	t.Helper()
	cb, err := device.Compute().GetCommandList()
	require.NoError(t, err)
	cb.GenerateRateMap(texture, c)
	cb.Transition(texture, gpu.StateUnorderedAccess, gpu.StateShadingRateSource)
	value, err := device.Compute().Submit(cb)
	require.NoError(t, err)
	return value
}

func TestKernelRingBoundariesAreInclusive(t *testing.T) {
	device := NewDevice()
	texture, err := device.CreateRateTexture(100, 100)
	require.NoError(t, err)

	generate(t, device, texture, gpu.RateMapConstants{
		CenterX:    0,
		CenterY:    0,
		InnerRing:  25,
		OuterRing:  80,
		RateFull:   gpu.Rate1x1,
		RateMedium: gpu.Rate2x2,
		RateLow:    gpu.Rate4x4,
	})

	content := texture.(*Texture)
	assert.Equal(t, gpu.Rate1x1, content.RateAt(24, 0))
	// A tile exactly on a ring joins the coarser band.
	assert.Equal(t, gpu.Rate2x2, content.RateAt(25, 0))
	assert.Equal(t, gpu.Rate2x2, content.RateAt(79, 0))
	assert.Equal(t, gpu.Rate4x4, content.RateAt(80, 0))
	assert.Empty(t, device.ComputeSim().Hazards())
}

func TestSubmissionsGetConsecutiveFenceValues(t *testing.T) {
	device := NewDevice()
	texture, err := device.CreateRateTexture(8, 8)
	require.NoError(t, err)

	c := gpu.RateMapConstants{InnerRing: 2, OuterRing: 4}
	first := generate(t, device, texture, c)

	cb, err := device.Compute().GetCommandList()
	require.NoError(t, err)
	cb.Transition(texture, gpu.StateShadingRateSource, gpu.StateUnorderedAccess)
	cb.GenerateRateMap(texture, c)
	cb.Transition(texture, gpu.StateUnorderedAccess, gpu.StateShadingRateSource)
	second, err := device.Compute().Submit(cb)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
	assert.True(t, device.Compute().Completed(2))
	assert.Empty(t, device.ComputeSim().Hazards())
}

func TestManualCompletionHoldsTheCounter(t *testing.T) {
	device := NewDevice(WithManualCompletion())
	texture, err := device.CreateRateTexture(8, 8)
	require.NoError(t, err)

	value := generate(t, device, texture, gpu.RateMapConstants{InnerRing: 2, OuterRing: 4})
	assert.False(t, device.Compute().Completed(value))
	assert.Equal(t, uint64(0), device.Compute().Fence().CompletedValue())

	device.ComputeSim().CompleteUpTo(value)
	assert.True(t, device.Compute().Completed(value))
	assert.Equal(t, value, device.Compute().Fence().CompletedValue())
}

func TestDispatchInWrongStateIsAHazard(t *testing.T) {
	device := NewDevice()
	texture, err := device.CreateRateTexture(8, 8)
	require.NoError(t, err)

	// Leave the texture in the consumption state, then dispatch without the
	// barrier back.
	generate(t, device, texture, gpu.RateMapConstants{InnerRing: 2, OuterRing: 4})
	cb, err := device.Compute().GetCommandList()
	require.NoError(t, err)
	cb.GenerateRateMap(texture, gpu.RateMapConstants{InnerRing: 2, OuterRing: 4})
	_, err = device.Compute().Submit(cb)
	require.NoError(t, err)

	assert.NotEmpty(t, device.ComputeSim().Hazards())
}

func TestSubmitRejectsForeignAndReusedBuffers(t *testing.T) {
	device := NewDevice()
	other := NewDevice()
	texture, err := device.CreateRateTexture(8, 8)
	require.NoError(t, err)

	cb, err := device.Compute().GetCommandList()
	require.NoError(t, err)
	cb.GenerateRateMap(texture, gpu.RateMapConstants{InnerRing: 2, OuterRing: 4})

	_, err = other.Compute().Submit(cb)
	assert.Error(t, err)

	_, err = device.Compute().Submit(cb)
	require.NoError(t, err)
	_, err = device.Compute().Submit(cb)
	assert.Error(t, err)
}

func TestCreateRateTextureRejectsZeroExtent(t *testing.T) {
	device := NewDevice()
	_, err := device.CreateRateTexture(0, 68)
	assert.Error(t, err)
}

func TestQueueTracksUnsatisfiedWaits(t *testing.T) {
	device := NewDevice(WithManualCompletion())
	texture, err := device.CreateRateTexture(8, 8)
	require.NoError(t, err)
	value := generate(t, device, texture, gpu.RateMapConstants{InnerRing: 2, OuterRing: 4})

	queue := NewQueue()
	queue.Wait(device.Compute().Fence(), value)
	assert.Len(t, queue.UnsatisfiedWaits(), 1)

	device.ComputeSim().CompleteUpTo(value)
	assert.Empty(t, queue.UnsatisfiedWaits())
	assert.Len(t, queue.Waits(), 1)
}
