package vrs

import (
	"github.com/spaghettifunk/fovea/injector/gpu"
)

// SyncQueue injects a GPU-side wait into the queue for every command list
// that still depends on an in-flight rate map dispatch, then forgets the
// dependency. Must run on the submitting thread right before the lists are
// handed to the queue. Lists without a pending dependency are untouched.
func (m *Manager) SyncQueue(queue gpu.Queue, lists []gpu.CommandList) {
	if !m.supported {
		return
	}

	m.depMu.Lock()
	defer m.depMu.Unlock()
	for _, cl := range lists {
		dep, ok := m.deps[cl]
		if !ok {
			continue
		}
		queue.Wait(m.compute.Fence(), dep.fenceValue)
		delete(m.deps, cl)
		m.queueWaits++
	}
}
