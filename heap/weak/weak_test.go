package weak

import (
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

func TestTable_RegisterResolve(t *testing.T) {
	h := newTestHeap(t)
	tbl := NewTable()

	id, err := h.Allocate(16)
	require.NoError(t, err)

	hd, err := tbl.Register(h, id)
	require.NoError(t, err)
	require.NotZero(t, hd)

	got, ok := tbl.Resolve(hd)
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.True(t, tbl.IsAlive(hd))

	addr, ok := tbl.AddressOf(hd)
	require.True(t, ok)
	want, _ := h.AddressOf(id)
	assert.Equal(t, want, addr)
}

func TestTable_RegisterBadTarget(t *testing.T) {
	h := newTestHeap(t)
	tbl := NewTable()

	_, err := tbl.Register(h, 12345)
	require.ErrorIs(t, err, ErrBadTarget)
}

func TestTable_ReconcileZapsDeadTargets(t *testing.T) {
	h := newTestHeap(t)
	tbl := NewTable()

	live, _ := h.Allocate(16)
	dead, _ := h.Allocate(16)
	hdLive, err := tbl.Register(h, live)
	require.NoError(t, err)
	hdDead, err := tbl.Register(h, dead)
	require.NoError(t, err)

	zapped := tbl.Reconcile(func(id heap.ObjectID) bool { return id == live })
	assert.Equal(t, 1, zapped)

	_, ok := tbl.Resolve(hdDead)
	assert.False(t, ok, "dead target resolves to empty")
	assert.False(t, tbl.IsAlive(hdDead))
	_, ok = tbl.AddressOf(hdDead)
	assert.False(t, ok, "no dangling address, ever")

	_, ok = tbl.Resolve(hdLive)
	assert.True(t, ok)
}

func TestTable_ZapIsPermanent(t *testing.T) {
	h := newTestHeap(t)
	tbl := NewTable()

	id, _ := h.Allocate(16)
	hd, err := tbl.Register(h, id)
	require.NoError(t, err)

	tbl.Reconcile(func(heap.ObjectID) bool { return false })
	require.False(t, tbl.IsAlive(hd))

	// A later pass that calls everything alive cannot resurrect the entry.
	tbl.Reconcile(func(heap.ObjectID) bool { return true })
	_, ok := tbl.Resolve(hd)
	assert.False(t, ok, "zapped entries stay empty permanently")
}

func TestTable_Rehome(t *testing.T) {
	h := newTestHeap(t)
	tbl := NewTable()

	id, _ := h.Allocate(16)
	hd, err := tbl.Register(h, id)
	require.NoError(t, err)
	old, _ := tbl.AddressOf(hd)

	tbl.Rehome(map[heap.Addr]heap.Addr{old: heap.Addr(8)})
	got, ok := tbl.AddressOf(hd)
	require.True(t, ok)
	assert.Equal(t, heap.Addr(8), got, "cached address follows the relocation map")
}

func TestTable_Drop(t *testing.T) {
	h := newTestHeap(t)
	tbl := NewTable()

	id, _ := h.Allocate(16)
	hd, err := tbl.Register(h, id)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	tbl.Drop(hd)
	assert.Zero(t, tbl.Len())
	_, ok := tbl.Resolve(hd)
	assert.False(t, ok)
}
