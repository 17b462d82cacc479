package gc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/joshuapare/gckit/heap"
	"github.com/joshuapare/gckit/heap/alloc"
	"github.com/joshuapare/gckit/heap/finalize"
	"github.com/joshuapare/gckit/heap/weak"
)

// ErrOutOfMemory indicates an allocation that could not be satisfied even
// after a full collection. It is fatal to that allocation only; the
// runtime remains usable.
var ErrOutOfMemory = errors.New("gc: out of memory")

// Runtime is a managed heap with its collector. All methods are safe for
// use from multiple goroutines; internally a single mutex serializes
// mutator operations against collection passes, making every pass
// stop-the-world by construction.
type Runtime struct {
	mu sync.Mutex

	h      *heap.Heap
	weaks  *weak.Table
	queue  *finalize.Queue
	log    *slog.Logger
	stats  Stats
	closed bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger attaches a logger. Pass events are logged at Debug,
// allocation-pressure events at Warn. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) { r.log = l }
}

// NewRuntime creates a heap from cfg and wraps it with a collector, weak
// reference table, and finalization queue.
func NewRuntime(cfg heap.Config, opts ...Option) (*Runtime, error) {
	h, err := heap.New(cfg)
	if err != nil {
		return nil, err
	}
	r := &Runtime{
		h:     h,
		weaks: weak.NewTable(),
		queue: finalize.NewQueue(),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases the heap. Objects still pending finalization never run
// their finalizers — shutdown does not wait on cleanup code.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if n := r.queue.Len(); n > 0 {
		r.log.Debug("closing with finalizers pending", "count", n)
	}
	return r.h.Close()
}

// Heap exposes the underlying heap. Intended for tests and embedders that
// manage their own synchronization; ordinary mutator code should stay on
// the Runtime surface.
func (r *Runtime) Heap() *heap.Heap { return r.h }

// ---- Allocation ----

// Allocate creates an object of the given payload size in generation 0.
// On exhaustion it collects, starting with generation 0 and escalating one
// generation at a time; only when a full pass still leaves no room does it
// report ErrOutOfMemory.
func (r *Runtime) Allocate(size int, opts ...heap.AllocOption) (heap.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.h.Allocate(size, opts...)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, alloc.ErrNoSpace) {
		return 0, err
	}

	for gen := 0; gen <= r.h.MaxGeneration(); gen++ {
		r.collectLocked(gen)
		id, err = r.h.Allocate(size, opts...)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, alloc.ErrNoSpace) {
			return 0, err
		}
	}

	r.log.Warn("allocation failed after full collection", "size", size)
	return 0, fmt.Errorf("%w: %d bytes", ErrOutOfMemory, size)
}

// ---- Collection surface ----

// Collect runs a collection over generations 0..maxGen and blocks until
// trace, reclamation, and compaction are done. Values outside
// [0, MaxGeneration] are clamped, so Collect(-1) and
// Collect(MaxGeneration()) both mean a full pass.
func (r *Runtime) Collect(maxGen int) PassReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collectLocked(maxGen)
}

// MaxGeneration returns the collector's generation ceiling.
func (r *Runtime) MaxGeneration() int { return r.h.MaxGeneration() }

// GenerationOf returns an object's current generation.
func (r *Runtime) GenerationOf(id heap.ObjectID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.h.GenerationOf(id)
}

// TotalMemory returns the bytes in use across both spaces. With force set
// it first blocks for a full collection and so reports live bytes only;
// otherwise it is a snapshot of the current cursors, cheap but inclusive
// of garbage not yet collected.
func (r *Runtime) TotalMemory(force bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if force {
		r.collectLocked(r.h.MaxGeneration())
	}
	return r.h.UsedBytes()
}

// ---- Mutator surface ----

// AddRoot pins an object in the static root set.
func (r *Runtime) AddRoot(id heap.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.h.AddRoot(id)
}

// RemoveRoot unpins an object from the static root set.
func (r *Runtime) RemoveRoot(id heap.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.h.RemoveRoot(id)
}

// AddRootProvider registers an external root enumerator (stack walker,
// register scanner) consulted at the start of every pass.
func (r *Runtime) AddRootProvider(p heap.RootProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.h.AddRootProvider(p)
}

// AddReference records an object-to-object edge.
func (r *Runtime) AddReference(from, to heap.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.h.AddReference(from, to)
}

// RemoveReference removes one occurrence of an edge.
func (r *Runtime) RemoveReference(from, to heap.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.h.RemoveReference(from, to)
}

// Bytes returns an object's payload. The slice aliases heap memory and is
// invalidated by the next collection.
func (r *Runtime) Bytes(id heap.ObjectID) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.h.Bytes(id)
}

// ---- Weak references ----

// NewWeakRef registers a weak reference to an object.
func (r *Runtime) NewWeakRef(id heap.ObjectID) (weak.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.weaks.Register(r.h, id)
}

// ResolveWeak returns the target of a weak reference, or ok=false once the
// target has been reclaimed.
func (r *Runtime) ResolveWeak(hd weak.Handle) (heap.ObjectID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.weaks.Resolve(hd)
}

// WeakAlive reports whether a weak reference's target is still live.
func (r *Runtime) WeakAlive(hd weak.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.weaks.IsAlive(hd)
}

// DropWeak unregisters a weak reference.
func (r *Runtime) DropWeak(hd weak.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weaks.Drop(hd)
}

// ---- Finalization / dispose ----

// Dispose performs deterministic cleanup on an object and suppresses its
// finalizer. Idempotent; see heap/finalize.
func (r *Runtime) Dispose(id heap.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return finalize.Dispose(r.h, r.queue, id)
}

// Disposed reports whether Dispose has completed for the object.
func (r *Runtime) Disposed(id heap.ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.h.Disposed(id)
}

// SuppressFinalization removes an object from finalizer eligibility
// without running its cleanup. Dispose calls this internally.
func (r *Runtime) SuppressFinalization(id heap.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.h.Suppress(id)
	r.queue.Remove(id)
	r.h.SetPending(id, false)
}

// PendingFinalizers returns the finalization queue depth.
func (r *Runtime) PendingFinalizers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Len()
}

// RunFinalizers drains the finalization queue, isolating each finalizer
// invocation from the others' failures. The context is honored between
// invocations. This is the "separate, later pass" finalizers run in — it
// holds the same lock as collection, so finalizers must not call back
// into the runtime.
func (r *Runtime) RunFinalizers(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ran, err := r.queue.Drain(ctx, r.h)
	r.stats.FinalizersRun += int64(ran)
	if err != nil {
		r.log.Debug("finalizer drain reported errors", "ran", ran, "err", err)
	}
	return ran, err
}

// ---- Diagnostics ----

// CheckIntegrity walks the segment and cross-checks the arena table.
func (r *Runtime) CheckIntegrity() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.h.CheckIntegrity()
}
