package finalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/gckit/heap"
)

func newTestHeap(t *testing.T) *heap.Heap {
	t.Helper()
	h, err := heap.New(heap.Config{
		SegmentSize:    64 * 1024,
		LargeSpaceSize: 64 * 1024,
	})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestQueue_DrainRunsFinalizers(t *testing.T) {
	h := newTestHeap(t)
	q := NewQueue()

	var ran []int
	var ids []heap.ObjectID
	for i := range 3 {
		id, err := h.Allocate(8, heap.WithFinalizer(func() { ran = append(ran, i) }))
		require.NoError(t, err)
		h.SetPending(id, true)
		q.Enqueue(id)
		ids = append(ids, id)
	}

	n, err := q.Drain(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{0, 1, 2}, ran, "FIFO order")
	assert.Zero(t, q.Len())

	for _, id := range ids {
		assert.False(t, h.PendingFinalization(id))
		assert.Nil(t, h.FinalizerOf(id), "finalizer is cleared after running")
	}
}

func TestQueue_PanicIsolation(t *testing.T) {
	h := newTestHeap(t)
	q := NewQueue()

	var second bool
	bad, err := h.Allocate(8, heap.WithFinalizer(func() { panic("finalizer bug") }))
	require.NoError(t, err)
	good, err := h.Allocate(8, heap.WithFinalizer(func() { second = true }))
	require.NoError(t, err)

	h.SetPending(bad, true)
	h.SetPending(good, true)
	q.Enqueue(bad)
	q.Enqueue(good)

	n, err := q.Drain(context.Background(), h)
	assert.Equal(t, 2, n, "both finalizers were invoked")
	require.Error(t, err, "the panic surfaces as an error")
	assert.True(t, second, "a failing finalizer does not stop the rest")
}

func TestQueue_DrainHonorsContext(t *testing.T) {
	h := newTestHeap(t)
	q := NewQueue()

	id, err := h.Allocate(8, heap.WithFinalizer(func() { t.Fatal("must not run") }))
	require.NoError(t, err)
	h.SetPending(id, true)
	q.Enqueue(id)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := q.Drain(ctx, h)
	assert.Zero(t, n)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, q.Len(), "cancelled drain leaves the queue intact")
}

func TestQueue_Remove(t *testing.T) {
	h := newTestHeap(t)
	q := NewQueue()

	a, _ := h.Allocate(8, heap.WithFinalizer(func() {}))
	b, _ := h.Allocate(8, heap.WithFinalizer(func() {}))
	q.Enqueue(a)
	q.Enqueue(b)

	q.Remove(a)
	assert.Equal(t, 1, q.Len())
	q.Remove(a) // absent: no-op
	assert.Equal(t, 1, q.Len())
}

func TestDispose_RunsCleanupOnce(t *testing.T) {
	h := newTestHeap(t)
	q := NewQueue()

	calls := 0
	id, err := h.Allocate(8, heap.WithCleanup(func() { calls++ }))
	require.NoError(t, err)

	require.NoError(t, Dispose(h, q, id))
	assert.Equal(t, 1, calls)
	assert.True(t, h.Disposed(id))

	// Idempotent: same observable state, cleanup not repeated.
	require.NoError(t, Dispose(h, q, id))
	assert.Equal(t, 1, calls)
	assert.True(t, h.Disposed(id))
}

func TestDispose_SuppressesFinalization(t *testing.T) {
	h := newTestHeap(t)
	q := NewQueue()

	id, err := h.Allocate(8,
		heap.WithCleanup(func() {}),
		heap.WithFinalizer(func() { t.Fatal("suppressed finalizer must not run") }),
	)
	require.NoError(t, err)

	require.NoError(t, Dispose(h, q, id))
	assert.False(t, h.Finalizable(id), "disposed object leaves finalizer eligibility")

	n, err := q.Drain(context.Background(), h)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDispose_RemovesFromQueue(t *testing.T) {
	h := newTestHeap(t)
	q := NewQueue()

	// Object already intercepted by a pass, then disposed before the drain.
	id, err := h.Allocate(8, heap.WithFinalizer(func() { t.Fatal("must not run") }))
	require.NoError(t, err)
	h.SetPending(id, true)
	q.Enqueue(id)

	require.NoError(t, Dispose(h, q, id))
	assert.Zero(t, q.Len())

	n, err := q.Drain(context.Background(), h)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDispose_BaseCleanupRunsDespitePanic(t *testing.T) {
	h := newTestHeap(t)
	q := NewQueue()

	id, err := h.Allocate(8,
		heap.WithCleanup(func() { panic("user cleanup bug") }),
		heap.WithFinalizer(func() {}),
	)
	require.NoError(t, err)

	err = Dispose(h, q, id)
	require.Error(t, err, "the panic is reported")
	assert.True(t, h.Disposed(id), "base cleanup still ran")
	assert.False(t, h.Finalizable(id), "suppression still happened")

	// Still idempotent afterwards.
	require.NoError(t, Dispose(h, q, id))
}

func TestDispose_UnknownObject(t *testing.T) {
	h := newTestHeap(t)
	q := NewQueue()

	require.ErrorIs(t, Dispose(h, q, 99), heap.ErrBadObject)
}
