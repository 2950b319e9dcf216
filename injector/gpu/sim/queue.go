package sim

import (
	"sync"

	"github.com/spaghettifunk/fovea/injector/gpu"
)

// QueueWait is one recorded GPU-side wait instruction.
type QueueWait struct {
	Fence gpu.Fence
	Value uint64
}

// Queue stands in for a host submission queue. Waits are recorded, not
// blocked on, exactly like a hardware queue wait returns immediately to the
// caller.
type Queue struct {
	mu    sync.Mutex
	waits []QueueWait
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Wait(f gpu.Fence, value uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waits = append(q.waits, QueueWait{Fence: f, Value: value})
}

// Waits returns every wait recorded so far, in submission order.
func (q *Queue) Waits() []QueueWait {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueueWait, len(q.waits))
	copy(out, q.waits)
	return out
}

// UnsatisfiedWaits returns the recorded waits whose fence value has not been
// reached yet.
func (q *Queue) UnsatisfiedWaits() []QueueWait {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []QueueWait
	for _, w := range q.waits {
		if w.Fence.CompletedValue() < w.Value {
			out = append(out, w)
		}
	}
	return out
}
