package gc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/gckit/heap"
	"github.com/joshuapare/gckit/heap/finalize"
)

// End-to-end scenarios covering the collector's externally observable
// guarantees.

func TestScenario_TenThousandDroppedObjects(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{SegmentSize: 1 << 20})

	for range 10000 {
		_, err := rt.Allocate(24)
		require.NoError(t, err)
	}

	before := rt.TotalMemory(false)
	rep := rt.Collect(rt.MaxGeneration())
	after := rt.TotalMemory(false)

	assert.Equal(t, 10000, rep.Reclaimed)
	assert.Less(t, after, before, "memory in use must drop after collecting garbage")
	assert.Zero(t, rt.Snapshot().Objects)
}

func TestScenario_WeakReferenceToReclaimedObject(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{})

	o, err := rt.Allocate(64)
	require.NoError(t, err)
	hd, err := rt.NewWeakRef(o)
	require.NoError(t, err)

	// No strong reference exists; a generation-0 pass sees the object (it
	// is generation 0, unreachable) and must reclaim it.
	rep := rt.Collect(0)
	assert.Equal(t, 1, rep.Reclaimed)
	assert.Equal(t, 1, rep.WeakRefsCleared)

	_, ok := rt.ResolveWeak(hd)
	assert.False(t, ok, "weak reference resolves empty after reclamation")
	assert.False(t, rt.WeakAlive(hd))

	// Permanently so.
	rt.Collect(rt.MaxGeneration())
	_, ok = rt.ResolveWeak(hd)
	assert.False(t, ok)
}

func TestScenario_WeakReferenceDoesNotExtendLifetime(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{})

	o, _ := rt.Allocate(64)
	_, err := rt.NewWeakRef(o)
	require.NoError(t, err)

	rep := rt.Collect(rt.MaxGeneration())
	assert.Equal(t, 1, rep.Reclaimed, "a weak reference is not a root")
}

func TestScenario_WeakReferenceSurvivesCompaction(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{})

	// Garbage in front of the survivor forces the survivor to relocate.
	for range 10 {
		_, err := rt.Allocate(64)
		require.NoError(t, err)
	}
	o, err := rt.Allocate(64)
	require.NoError(t, err)
	rt.AddRoot(o)
	hd, err := rt.NewWeakRef(o)
	require.NoError(t, err)

	rep := rt.Collect(rt.MaxGeneration())
	require.Positive(t, rep.Relocated, "the survivor moved")

	got, ok := rt.ResolveWeak(hd)
	require.True(t, ok)
	assert.Equal(t, o, got)
	assert.True(t, rt.WeakAlive(hd))
}

func TestScenario_FinalizerDefersReclamation(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{})

	finalized := false
	o, err := rt.Allocate(64, heap.WithFinalizer(func() { finalized = true }))
	require.NoError(t, err)

	// First pass: intercepted, queued, not reclaimed.
	rep := rt.Collect(rt.MaxGeneration())
	assert.Zero(t, rep.Reclaimed)
	assert.Equal(t, 1, rep.Queued)
	assert.Equal(t, 1, rt.PendingFinalizers())
	assert.False(t, finalized, "collection never runs user code")

	gen, err := rt.GenerationOf(o)
	require.NoError(t, err)
	assert.Equal(t, 1, gen, "the resurrected object was promoted")

	// Finalizer pass.
	ran, err := rt.RunFinalizers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	assert.True(t, finalized)
	assert.Zero(t, rt.PendingFinalizers())

	// Second collection reclaims the memory.
	rep = rt.Collect(rt.MaxGeneration())
	assert.Equal(t, 1, rep.Reclaimed)
	_, err = rt.GenerationOf(o)
	require.ErrorIs(t, err, heap.ErrBadObject)
}

func TestScenario_ResurrectionKeepsReferentsAndWeaksAlive(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{})

	o, err := rt.Allocate(64, heap.WithFinalizer(func() {}))
	require.NoError(t, err)
	p, err := rt.Allocate(64)
	require.NoError(t, err)
	require.NoError(t, rt.AddReference(o, p))
	hd, err := rt.NewWeakRef(p)
	require.NoError(t, err)

	// Both unreachable, but o's finalizer resurrects the pair for one
	// pass; the weak table uses the same snapshot, so hd still resolves.
	rep := rt.Collect(rt.MaxGeneration())
	assert.Zero(t, rep.Reclaimed)
	_, ok := rt.ResolveWeak(hd)
	assert.True(t, ok, "weak target rides out the resurrection pass")

	_, err = rt.RunFinalizers(context.Background())
	require.NoError(t, err)

	rep = rt.Collect(rt.MaxGeneration())
	assert.Equal(t, 2, rep.Reclaimed, "finalized object and its referent both go")
	_, ok = rt.ResolveWeak(hd)
	assert.False(t, ok)
}

func TestScenario_DisposeSkipsFinalization(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{})

	cleaned := 0
	o, err := rt.Allocate(64,
		heap.WithCleanup(func() { cleaned++ }),
		heap.WithFinalizer(func() { t.Fatal("suppressed finalizer ran") }),
	)
	require.NoError(t, err)

	require.NoError(t, rt.Dispose(o))
	assert.Equal(t, 1, cleaned)
	assert.True(t, rt.Disposed(o))

	// Idempotent.
	require.NoError(t, rt.Dispose(o))
	assert.Equal(t, 1, cleaned)

	// Disposed object is reclaimed directly: no queue, no extra pass.
	rep := rt.Collect(rt.MaxGeneration())
	assert.Equal(t, 1, rep.Reclaimed)
	assert.Zero(t, rep.Queued)
	assert.Zero(t, rt.PendingFinalizers())
}

func TestScenario_SuppressFinalizationWithoutDispose(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{})

	o, err := rt.Allocate(64, heap.WithFinalizer(func() { t.Fatal("must not run") }))
	require.NoError(t, err)

	rt.SuppressFinalization(o)
	rep := rt.Collect(rt.MaxGeneration())
	assert.Equal(t, 1, rep.Reclaimed)
	assert.Zero(t, rep.Queued)
}

func TestScenario_UseAfterDisposeContract(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{})

	o, err := rt.Allocate(64)
	require.NoError(t, err)
	require.NoError(t, rt.Dispose(o))

	// The runtime does not police payload access; object authors check the
	// disposed flag and surface the sentinel themselves.
	if rt.Disposed(o) {
		err = finalize.ErrUseAfterDispose
	}
	require.ErrorIs(t, err, finalize.ErrUseAfterDispose)
}

func TestScenario_OutOfMemoryIsFatalToAllocationOnly(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{
		SegmentSize:    4096,
		LargeSpaceSize: 4096,
		LargeObjectMin: 4096,
	})

	var roots []heap.ObjectID
	for {
		id, err := rt.Allocate(248)
		if err != nil {
			require.ErrorIs(t, err, ErrOutOfMemory)
			break
		}
		rt.AddRoot(id)
		roots = append(roots, id)
	}
	require.NotEmpty(t, roots, "the heap held at least one object before filling up")

	// The collector is not poisoned: release the roots and allocation
	// works again.
	for _, id := range roots {
		rt.RemoveRoot(id)
	}
	id, err := rt.Allocate(248)
	require.NoError(t, err)
	require.NotZero(t, id)
	require.NoError(t, rt.CheckIntegrity())
}

func TestScenario_LargeObjectLifecycle(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{
		SegmentSize:    64 * 1024,
		LargeSpaceSize: 64 * 1024,
		LargeObjectMin: 16 * 1024,
	})

	big, err := rt.Allocate(20 * 1024)
	require.NoError(t, err)
	rt.AddRoot(big)

	addrBefore, err := rt.Heap().AddressOf(big)
	require.NoError(t, err)
	rt.Collect(rt.MaxGeneration())
	addrAfter, err := rt.Heap().AddressOf(big)
	require.NoError(t, err)
	assert.Equal(t, addrBefore, addrAfter, "large objects never relocate")

	// Dropping it frees large space for the next big allocation.
	rt.RemoveRoot(big)
	used := rt.TotalMemory(true)
	assert.Less(t, used, int64(20*1024), "large cell was reclaimed in place")

	again, err := rt.Allocate(20 * 1024)
	require.NoError(t, err)
	require.NotZero(t, again)
}

func TestScenario_ExhaustionTriggersCollectionAutomatically(t *testing.T) {
	rt := newTestRuntime(t, heap.Config{
		SegmentSize:    4096,
		LargeSpaceSize: 4096,
		LargeObjectMin: 4096,
	})

	// Churn far more bytes than the segment holds; every allocation is
	// garbage by the time the next one needs room.
	for i := range 200 {
		_, err := rt.Allocate(240)
		require.NoError(t, err, "allocation %d should have been satisfied by collection", i)
	}
	assert.Positive(t, rt.Stats().Collections, "exhaustion forced at least one pass")
}
