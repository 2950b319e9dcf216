package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFifoOrder(t *testing.T) {
	rq := NewRingQueue[int](3)
	assert.True(t, rq.IsEmpty())

	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))
	require.NoError(t, rq.Enqueue(3))
	assert.True(t, rq.IsFull())
	assert.Error(t, rq.Enqueue(4))

	head, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, head)

	for want := 1; want <= 3; want++ {
		got, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = rq.Dequeue()
	assert.Error(t, err)
}

func TestRingQueueWrapsAround(t *testing.T) {
	rq := NewRingQueue[string](2)
	require.NoError(t, rq.Enqueue("a"))
	require.NoError(t, rq.Enqueue("b"))

	got, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	require.NoError(t, rq.Enqueue("c"))
	assert.Equal(t, 2, rq.Len())

	at0, err := rq.At(0)
	require.NoError(t, err)
	at1, err := rq.At(1)
	require.NoError(t, err)
	assert.Equal(t, "b", at0)
	assert.Equal(t, "c", at1)

	_, err = rq.At(2)
	assert.Error(t, err)
}
