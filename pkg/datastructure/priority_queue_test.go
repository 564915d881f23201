package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinHeapOrder(t *testing.T) {
	pq := NewMinHeap[int32]()
	pq.Insert(NewPriorityQueueNode[int32](5, 50))
	pq.Insert(NewPriorityQueueNode[int32](1, 10))
	pq.Insert(NewPriorityQueueNode[int32](3, 30))
	pq.Insert(NewPriorityQueueNode[int32](2, 20))

	want := []int32{10, 20, 30, 50}
	for _, w := range want {
		item, ok := pq.ExtractMin()
		require.True(t, ok)
		assert.Equal(t, w, item.Item)
	}
	_, ok := pq.ExtractMin()
	assert.False(t, ok)
}

func TestMinHeapDecreaseKey(t *testing.T) {
	pq := NewMinHeap[int32]()
	pq.Insert(NewPriorityQueueNode[int32](10, 1))
	pq.Insert(NewPriorityQueueNode[int32](20, 2))

	pq.DecreaseKey(NewPriorityQueueNode[int32](5, 2))

	item, ok := pq.ExtractMin()
	require.True(t, ok)
	assert.Equal(t, int32(2), item.Item)
	assert.Equal(t, 5.0, item.Rank)

	// decrease key on missing item inserts it
	pq.DecreaseKey(NewPriorityQueueNode[int32](1, 3))
	item, _ = pq.ExtractMin()
	assert.Equal(t, int32(3), item.Item)
}
