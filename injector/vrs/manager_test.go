package vrs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/fovea/injector/gpu"
	"github.com/spaghettifunk/fovea/injector/gpu/sim"
	"github.com/spaghettifunk/fovea/injector/vrs"
)

type stubProvider struct {
	x, y, distance float32
	ok             bool
}

func (p *stubProvider) Update() {}

func (p *stubProvider) Gaze() (float32, float32, float32, bool) {
	return p.x, p.y, p.distance, p.ok
}

func viewport(w, h float32) gpu.Viewport {
	return gpu.Viewport{Width: w, Height: h}
}

func TestEnableCreatesTiledRateMap(t *testing.T) {
	device := sim.NewDevice(sim.WithManualCompletion())
	m := vrs.NewManager(device)
	require.True(t, m.Supported())

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), nil)

	texture := cl.ShadingRateImage()
	require.NotNil(t, texture)
	assert.Equal(t, uint32(120), texture.Width())
	assert.Equal(t, uint32(68), texture.Height())

	rate, combiners := cl.ShadingRate()
	assert.Equal(t, gpu.Rate1x1, rate)
	assert.Equal(t, [2]gpu.Combiner{gpu.CombinerMax, gpu.CombinerMax}, combiners)

	// Without a gaze source the map centers on the screen.
	content := texture.(*sim.Texture)
	assert.Equal(t, gpu.Rate1x1, content.RateAt(60, 34))
	assert.Equal(t, gpu.Rate4x4, content.RateAt(0, 0))

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Empty(t, device.ComputeSim().Hazards())
}

func TestSyncQueueWaitsForPendingDispatch(t *testing.T) {
	device := sim.NewDevice(sim.WithManualCompletion())
	m := vrs.NewManager(device)

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), nil)

	queue := sim.NewQueue()
	m.SyncQueue(queue, []gpu.CommandList{cl})
	waits := queue.Waits()
	require.Len(t, waits, 1)
	assert.Equal(t, uint64(1), waits[0].Value)
	assert.Len(t, queue.UnsatisfiedWaits(), 1)

	device.ComputeSim().CompleteUpTo(1)
	assert.Empty(t, queue.UnsatisfiedWaits())

	// The dependency is consumed by the first sync.
	m.SyncQueue(queue, []gpu.CommandList{cl})
	assert.Len(t, queue.Waits(), 1)
}

func TestSharedMapOrdersEveryConsumerQueue(t *testing.T) {
	device := sim.NewDevice(sim.WithManualCompletion())
	m := vrs.NewManager(device)

	// Two command lists consume the same in-flight map: the first misses,
	// the second hits, both depend on fence 1.
	first := sim.NewCommandList()
	second := sim.NewCommandList()
	m.Enable(first, viewport(1920, 1080), nil)
	m.Enable(second, viewport(1920, 1080), nil)
	require.Equal(t, uint64(1), device.ComputeSim().LastIssued())

	// Submitted to two different host queues, each queue must get its own
	// wait on the generation dispatch.
	queueA := sim.NewQueue()
	queueB := sim.NewQueue()
	m.SyncQueue(queueA, []gpu.CommandList{first})
	m.SyncQueue(queueB, []gpu.CommandList{second})

	waitsA := queueA.Waits()
	require.Len(t, waitsA, 1)
	assert.Equal(t, uint64(1), waitsA[0].Value)
	waitsB := queueB.Waits()
	require.Len(t, waitsB, 1)
	assert.Equal(t, uint64(1), waitsB[0].Value)
	assert.Equal(t, uint64(2), m.Stats().QueueWaits)
}

func TestManyInFlightDispatchesInOneFrame(t *testing.T) {
	device := sim.NewDevice(sim.WithManualCompletion())
	m := vrs.NewManager(device)
	queue := sim.NewQueue()

	// More distinct resolutions than any backend keeps in-flight bookkeeping
	// for; every one must generate and synchronize without failing.
	lists := make([]gpu.CommandList, 0, 20)
	for i := 0; i < 20; i++ {
		cl := sim.NewCommandList()
		m.Enable(cl, viewport(float32(1920-64*i), 1080), nil)
		lists = append(lists, cl)
	}
	assert.Equal(t, uint64(20), m.Stats().Misses)
	assert.Equal(t, uint64(20), device.ComputeSim().LastIssued())

	m.SyncQueue(queue, lists)
	assert.Len(t, queue.Waits(), 20)
}

func TestCompletedDispatchRecordsNoDependency(t *testing.T) {
	device := sim.NewDevice()
	m := vrs.NewManager(device)

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), nil)

	queue := sim.NewQueue()
	m.SyncQueue(queue, []gpu.CommandList{cl})
	assert.Empty(t, queue.Waits())
	assert.Equal(t, uint64(0), m.Stats().QueueWaits)
}

func TestStaleContentReusedWithoutGaze(t *testing.T) {
	device := sim.NewDevice()
	m := vrs.NewManager(device)

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), nil)
	content := cl.ShadingRateImage().(*sim.Texture)
	checksum := content.Checksum()
	issued := device.ComputeSim().LastIssued()

	m.Present()
	m.Enable(cl, viewport(1920, 1080), nil)

	assert.Same(t, content, cl.ShadingRateImage().(*sim.Texture))
	assert.Equal(t, checksum, content.Checksum())
	assert.Equal(t, issued, device.ComputeSim().LastIssued())
	assert.Equal(t, uint64(1), m.Stats().Hits)
}

func TestGazeRegeneratesOncePerFrame(t *testing.T) {
	device := sim.NewDevice()
	m := vrs.NewManager(device)
	provider := &stubProvider{x: 0.25, y: 0.5, distance: 600, ok: true}

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), provider)
	require.Equal(t, uint64(1), device.ComputeSim().LastIssued())

	// Same frame, second consumer: no extra dispatch.
	other := sim.NewCommandList()
	m.Enable(other, viewport(1920, 1080), provider)
	assert.Equal(t, uint64(1), device.ComputeSim().LastIssued())

	m.Present()
	m.Enable(cl, viewport(1920, 1080), provider)
	assert.Equal(t, uint64(2), device.ComputeSim().LastIssued())
	assert.Equal(t, uint64(1), m.Stats().Regenerations)

	// The full rate region follows the gaze point.
	content := cl.ShadingRateImage().(*sim.Texture)
	assert.Equal(t, gpu.Rate1x1, content.RateAt(30, 34))
	assert.Equal(t, gpu.Rate4x4, content.RateAt(119, 34))
}

func TestGazeLossRestoresCenteredPattern(t *testing.T) {
	device := sim.NewDevice()
	m := vrs.NewManager(device)
	provider := &stubProvider{x: 0.1, y: 0.1, distance: 600, ok: true}

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), provider)
	m.Present()

	// One final regeneration with the default center when the source drops.
	provider.ok = false
	m.Enable(cl, viewport(1920, 1080), provider)
	assert.Equal(t, uint64(2), device.ComputeSim().LastIssued())
	content := cl.ShadingRateImage().(*sim.Texture)
	assert.Equal(t, gpu.Rate1x1, content.RateAt(60, 34))

	// Afterwards the cached content is simply reused.
	m.Present()
	m.Enable(cl, viewport(1920, 1080), provider)
	assert.Equal(t, uint64(2), device.ComputeSim().LastIssued())
}

func TestDistanceScalesTheRings(t *testing.T) {
	device := sim.NewDevice()
	m := vrs.NewManager(device)
	// Far away from the screen the scale clamps at 1.5, growing the rings
	// by half: inner 0.25*68*1.5 = 25.5 tiles.
	provider := &stubProvider{x: 0.5, y: 0.5, distance: 1800, ok: true}

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), provider)
	content := cl.ShadingRateImage().(*sim.Texture)
	// (85, 34) is 25 tiles from the center: inside the scaled inner ring,
	// outside the unscaled one.
	assert.Equal(t, gpu.Rate1x1, content.RateAt(85, 34))
}

func TestUnusedMapsEvictAfterHundredPresents(t *testing.T) {
	device := sim.NewDevice()
	m := vrs.NewManager(device)

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), nil)
	texture := cl.ShadingRateImage().(*sim.Texture)

	for i := 0; i < 100; i++ {
		m.Present()
	}
	assert.Equal(t, uint64(0), m.Stats().Evictions)

	m.Present()
	assert.Equal(t, uint64(1), m.Stats().Evictions)
	assert.Empty(t, texture.Pixels())

	// The next request allocates a fresh map.
	m.Enable(cl, viewport(1920, 1080), nil)
	assert.Equal(t, uint64(2), m.Stats().Misses)
}

func TestTouchedMapSurvivesAging(t *testing.T) {
	device := sim.NewDevice()
	m := vrs.NewManager(device)

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), nil)
	for i := 0; i < 99; i++ {
		m.Present()
	}
	m.Enable(cl, viewport(1920, 1080), nil)
	for i := 0; i < 100; i++ {
		m.Present()
	}
	assert.Equal(t, uint64(0), m.Stats().Evictions)
}

func TestUnsubmittedDependenciesAgeOut(t *testing.T) {
	device := sim.NewDevice(sim.WithManualCompletion())
	m := vrs.NewManager(device)

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), nil)
	for i := 0; i < 101; i++ {
		m.Present()
	}

	queue := sim.NewQueue()
	m.SyncQueue(queue, []gpu.CommandList{cl})
	assert.Empty(t, queue.Waits())
}

func TestSyncQueueIgnoresUnknownLists(t *testing.T) {
	device := sim.NewDevice(sim.WithManualCompletion())
	m := vrs.NewManager(device)

	queue := sim.NewQueue()
	m.SyncQueue(queue, []gpu.CommandList{sim.NewCommandList()})
	assert.Empty(t, queue.Waits())
	assert.Equal(t, uint64(0), m.Stats().QueueWaits)
}

func TestDisableRestoresFullRate(t *testing.T) {
	device := sim.NewDevice()
	m := vrs.NewManager(device)

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), nil)
	require.NotNil(t, cl.ShadingRateImage())

	m.Disable(cl)
	assert.Nil(t, cl.ShadingRateImage())
	rate, combiners := cl.ShadingRate()
	assert.Equal(t, gpu.Rate1x1, rate)
	assert.Equal(t, [2]gpu.Combiner{gpu.CombinerPassthrough, gpu.CombinerPassthrough}, combiners)
}

func TestUnsupportedDeviceIsNoOp(t *testing.T) {
	device := sim.NewDevice(sim.WithoutShadingRate())
	m := vrs.NewManager(device)
	assert.False(t, m.Supported())

	cl := sim.NewCommandList()
	m.Enable(cl, viewport(1920, 1080), nil)
	assert.Nil(t, cl.ShadingRateImage())

	m.Present()
	m.SyncQueue(sim.NewQueue(), []gpu.CommandList{cl})
	assert.Equal(t, vrs.Stats{}, m.Stats())
}
