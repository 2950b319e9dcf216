/*
Package gaze supplies the focus point the rate-map generator biases toward.
There is no hardware tracker integration here; providers latch whatever
source they poll and the latch invalidates samples after 600ms, so a tracker
dropping out degrades to fixed foveation instead of a frozen gaze point.
*/
package gaze

import (
	"sync"
	"time"
)

// DefaultDistanceMM is the assumed eye-to-screen distance when a provider
// has no distance measurement.
const DefaultDistanceMM float32 = 600.0

// sampleTimeout invalidates latched samples; a tracker that went quiet for
// this long no longer drives foveation.
const sampleTimeout = 600 * time.Millisecond

// Provider supplies the latest gaze sample.
type Provider interface {
	// Update polls the underlying source. Call at most once per frame, as
	// late as possible before the sample is consumed.
	Update()
	// Gaze returns normalized screen coordinates in [0,1] and the eye
	// distance in millimeters. ok is false when no fresh sample exists.
	Gaze() (x, y, distance float32, ok bool)
}

type sample struct {
	at       time.Time
	x        float32
	y        float32
	distance float32
}

// Latch keeps the most recent sample and drops it once stale. The last seen
// distance outlives the sample itself, mirroring how head distance changes
// far slower than the gaze point.
type Latch struct {
	mu           sync.Mutex
	current      *sample
	lastDistance float32
	now          func() time.Time
}

func NewLatch() *Latch {
	return &Latch{
		lastDistance: DefaultDistanceMM,
		now:          time.Now,
	}
}

// Put latches a new sample. A zero distance keeps the previous measurement.
func (l *Latch) Put(x, y, distance float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if distance > 0 {
		l.lastDistance = distance
	}
	l.current = &sample{
		at:       l.now(),
		x:        x,
		y:        y,
		distance: l.lastDistance,
	}
}

func (l *Latch) Gaze() (float32, float32, float32, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Invalidate the latched data when it is too old.
	if l.current != nil && l.now().Sub(l.current.at) >= sampleTimeout {
		l.current = nil
	}
	if l.current == nil {
		return 0, 0, 0, false
	}
	return l.current.x, l.current.y, l.current.distance, true
}
