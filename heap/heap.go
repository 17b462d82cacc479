package heap

import (
	"fmt"

	"github.com/joshuapare/gckit/heap/alloc"
	"github.com/joshuapare/gckit/internal/layout"
)

// Heap is a managed heap instance: the object arena, the compacting
// segment, the large object space, the root registry, and the remembered
// set. It is not thread-safe; the owning runtime serializes mutator and
// collector access.
type Heap struct {
	cfg Config

	seg   *alloc.Segment
	large *alloc.LargeSpace

	// objects is the arena table, indexed by id-1. Rows of reclaimed
	// objects are zeroed and their ids recycled through freeIDs.
	objects []object
	freeIDs []ObjectID
	count   int

	static     *StaticRoots
	providers  []RootProvider
	remembered rememberedSet

	closed bool
}

// New creates a heap from cfg, reserving both spaces up front.
func New(cfg Config) (*Heap, error) {
	cfg = cfg.withDefaults()

	seg, err := alloc.NewSegment(cfg.SegmentSize)
	if err != nil {
		return nil, fmt.Errorf("heap: segment: %w", err)
	}
	large, err := alloc.NewLargeSpace(cfg.LargeSpaceSize)
	if err != nil {
		seg.Release()
		return nil, fmt.Errorf("heap: large space: %w", err)
	}

	h := &Heap{
		cfg:        cfg,
		seg:        seg,
		large:      large,
		static:     NewStaticRoots(),
		remembered: make(rememberedSet),
	}
	h.providers = append(h.providers, h.static)

	return h, nil
}

// Close releases both spaces. The heap must not be used afterwards.
func (h *Heap) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	err := h.seg.Release()
	if lerr := h.large.Release(); err == nil {
		err = lerr
	}
	return err
}

// Config returns the effective (defaulted) configuration.
func (h *Heap) Config() Config { return h.cfg }

// MaxGeneration returns the saturating generation ceiling.
func (h *Heap) MaxGeneration() int { return h.cfg.MaxGeneration }

// ---- Allocation ----

// Allocate creates a new object of the given payload size in generation 0
// and returns its id. Sizes at or above Config.LargeObjectMin route to the
// large object space. Fails with alloc.ErrNoSpace when the target space is
// exhausted; the caller decides whether to collect and retry.
func (h *Heap) Allocate(size int, opts ...AllocOption) (ObjectID, error) {
	if h.closed {
		return 0, ErrClosed
	}
	if size < 0 {
		return 0, ErrBadSize
	}

	id := h.nextID()

	var addr Addr
	if size >= h.cfg.LargeObjectMin {
		off, err := h.large.Alloc(size, uint32(id))
		if err != nil {
			h.recycleID(id)
			return 0, err
		}
		addr = Addr(off | layout.LargeAddrBit)
	} else {
		off, err := h.seg.Alloc(size, uint32(id))
		if err != nil {
			h.recycleID(id)
			return 0, err
		}
		addr = Addr(off)
	}

	o := &h.objects[id-1]
	*o = object{addr: addr, size: int32(size), live: true}
	for _, opt := range opts {
		opt(o)
	}
	h.count++

	return id, nil
}

// nextID hands out a recycled id or grows the table.
func (h *Heap) nextID() ObjectID {
	if n := len(h.freeIDs); n > 0 {
		id := h.freeIDs[n-1]
		h.freeIDs = h.freeIDs[:n-1]
		return id
	}
	h.objects = append(h.objects, object{})
	return ObjectID(len(h.objects))
}

func (h *Heap) recycleID(id ObjectID) {
	h.objects[id-1] = object{}
	h.freeIDs = append(h.freeIDs, id)
}

// lookup returns the row for id, or nil if the id names no live object.
func (h *Heap) lookup(id ObjectID) *object {
	if id == 0 || int(id) > len(h.objects) {
		return nil
	}
	o := &h.objects[id-1]
	if !o.live {
		return nil
	}
	return o
}

// Contains reports whether id names a live object.
func (h *Heap) Contains(id ObjectID) bool { return h.lookup(id) != nil }

// ObjectCount returns the number of live objects.
func (h *Heap) ObjectCount() int { return h.count }

// UsedBytes returns the bytes consumed in both spaces, headers included.
// This is the non-blocking "estimate" flavor of a total-memory query: it
// reflects the current cursors, not reachability.
func (h *Heap) UsedBytes() int64 {
	return h.seg.Used() + h.large.Used()
}

// ---- Object accessors ----

// GenerationOf returns the object's current generation.
func (h *Heap) GenerationOf(id ObjectID) (int, error) {
	o := h.lookup(id)
	if o == nil {
		return 0, ErrBadObject
	}
	return int(o.gen), nil
}

// AddressOf returns the object's current cell address. Segment addresses
// are only stable until the next collection.
func (h *Heap) AddressOf(id ObjectID) (Addr, error) {
	o := h.lookup(id)
	if o == nil {
		return 0, ErrBadObject
	}
	return o.addr, nil
}

// SizeOf returns the object's payload size in bytes.
func (h *Heap) SizeOf(id ObjectID) (int, error) {
	o := h.lookup(id)
	if o == nil {
		return 0, ErrBadObject
	}
	return int(o.size), nil
}

// Bytes returns the object's payload. The slice aliases heap memory and is
// invalidated by the next collection.
func (h *Heap) Bytes(id ObjectID) ([]byte, error) {
	o := h.lookup(id)
	if o == nil {
		return nil, ErrBadObject
	}
	mem, off := h.cell(o.addr)
	start := off + layout.CellHeaderSize
	return mem[start : start+int(o.size)], nil
}

// cell resolves an address to its backing memory and plain offset.
func (h *Heap) cell(addr Addr) ([]byte, int) {
	if uint32(addr)&layout.LargeAddrBit != 0 {
		return h.large.Bytes(), int(uint32(addr) &^ layout.LargeAddrBit)
	}
	return h.seg.Bytes(), int(addr)
}

// IsLarge reports whether the address names a large object cell.
func IsLarge(addr Addr) bool { return uint32(addr)&layout.LargeAddrBit != 0 }

// ---- Reference graph ----

// AddReference records an edge from one object to another. This is the
// write barrier: an edge from an older generation into a younger one also
// lands in the remembered set.
func (h *Heap) AddReference(from, to ObjectID) error {
	fo := h.lookup(from)
	po := h.lookup(to)
	if fo == nil || po == nil {
		return ErrBadObject
	}
	fo.refs = append(fo.refs, to)
	if fo.gen > po.gen {
		h.remembered.record(from, to)
	}
	return nil
}

// RemoveReference deletes one occurrence of the edge from → to.
func (h *Heap) RemoveReference(from, to ObjectID) error {
	fo := h.lookup(from)
	if fo == nil {
		return ErrBadObject
	}
	for i, ref := range fo.refs {
		if ref == to {
			fo.refs = append(fo.refs[:i], fo.refs[i+1:]...)
			h.remembered.remove(from, to)
			return nil
		}
	}
	return ErrBadObject
}

// References returns the object's outgoing edges. The slice is owned by
// the heap and must not be mutated.
func (h *Heap) References(id ObjectID) []ObjectID {
	o := h.lookup(id)
	if o == nil {
		return nil
	}
	return o.refs
}

// ForEachObject calls fn for every live object id, in id order.
func (h *Heap) ForEachObject(fn func(ObjectID)) {
	for i := range h.objects {
		if h.objects[i].live {
			fn(ObjectID(i + 1))
		}
	}
}

// ---- Collector entry points ----
//
// Everything below is for heap/trace, heap/compact, and gc. Mutator code
// has no business calling these.

// ClearMarks resets every mark bit ahead of a trace.
func (h *Heap) ClearMarks() {
	for i := range h.objects {
		h.objects[i].marked = false
	}
}

// Mark sets the mark bit. Reports whether the object was newly marked, so
// the tracer visits each object at most once however many edges reach it.
func (h *Heap) Mark(id ObjectID) bool {
	o := h.lookup(id)
	if o == nil || o.marked {
		return false
	}
	o.marked = true
	return true
}

// IsMarked reports the mark bit.
func (h *Heap) IsMarked(id ObjectID) bool {
	o := h.lookup(id)
	return o != nil && o.marked
}

// InScope reports whether the object's generation is within a collection
// scoped to 0..maxGen.
func (h *Heap) InScope(id ObjectID, maxGen int) bool {
	o := h.lookup(id)
	return o != nil && int(o.gen) <= maxGen
}

// Alive reports the pass-level liveness verdict for a collection scoped to
// 0..maxGen: objects outside the scope are implicitly alive, objects in
// scope are alive iff marked.
func (h *Heap) Alive(id ObjectID, maxGen int) bool {
	o := h.lookup(id)
	if o == nil {
		return false
	}
	return int(o.gen) > maxGen || o.marked
}

// Promote increments the object's generation, saturating at the ceiling.
func (h *Heap) Promote(id ObjectID) {
	o := h.lookup(id)
	if o == nil {
		return
	}
	if int(o.gen) < h.cfg.MaxGeneration {
		o.gen++
	}
}

// Reclaim destroys an object: large cells go back to the free list,
// segment cells are left for the compactor to slide over, the arena row is
// zeroed, and the id becomes reusable. Remembered-set edges touching the
// object are dropped.
func (h *Heap) Reclaim(id ObjectID) error {
	o := h.lookup(id)
	if o == nil {
		return ErrBadObject
	}
	if IsLarge(o.addr) {
		off := uint32(o.addr) &^ layout.LargeAddrBit
		if err := h.large.Free(off); err != nil {
			return err
		}
	}
	h.remembered.drop(id)
	h.recycleID(id)
	h.count--
	return nil
}

// RememberedSeeds returns the targets of remembered edges that cross from
// outside the scope into it. Together with the roots, these seed the mark
// phase of a partial collection.
func (h *Heap) RememberedSeeds(maxGen int) []ObjectID {
	return h.remembered.seeds(h, maxGen)
}

// SegmentBytes exposes the segment memory to the compactor.
func (h *Heap) SegmentBytes() []byte { return h.seg.Bytes() }

// SegmentCursor returns the segment's next-free offset.
func (h *Heap) SegmentCursor() int32 { return h.seg.Cursor() }

// SegmentCapacity returns the segment's capacity.
func (h *Heap) SegmentCapacity() int32 { return h.seg.Capacity() }

// LargestLargeFree returns the largest free span in the large object
// space. Exposed for allocation-failure diagnostics.
func (h *Heap) LargestLargeFree() int32 { return h.large.LargestFree() }

// Relocate updates an object's address after the compactor moved its
// cell. Only segment cells relocate.
func (h *Heap) Relocate(id ObjectID, addr Addr) error {
	o := h.lookup(id)
	if o == nil {
		return ErrBadObject
	}
	o.addr = addr
	return nil
}

// ResetSegmentCursor rewinds the segment cursor after compaction.
func (h *Heap) ResetSegmentCursor(cursor int32) {
	h.seg.ResetCursor(cursor)
}

// ---- Finalization / dispose state ----

// Finalizable reports whether the object declared a finalizer that is
// neither suppressed, already queued, nor already run.
func (h *Heap) Finalizable(id ObjectID) bool {
	o := h.lookup(id)
	return o != nil && o.finalizer != nil && !o.suppressed && !o.pending
}

// PendingFinalization reports whether the object sits on the finalization
// queue.
func (h *Heap) PendingFinalization(id ObjectID) bool {
	o := h.lookup(id)
	return o != nil && o.pending
}

// SetPending moves the object into or out of the pending-finalization
// state. Entering the state consumes the finalizer flag's eligibility;
// leaving it (after the finalizer ran) clears the finalizer entirely.
func (h *Heap) SetPending(id ObjectID, pending bool) {
	o := h.lookup(id)
	if o == nil {
		return
	}
	o.pending = pending
	if !pending {
		o.finalizer = nil
	}
}

// FinalizerOf returns the declared finalizer, or nil.
func (h *Heap) FinalizerOf(id ObjectID) func() {
	o := h.lookup(id)
	if o == nil {
		return nil
	}
	return o.finalizer
}

// Suppress removes the object from finalizer eligibility. Idempotent.
func (h *Heap) Suppress(id ObjectID) {
	o := h.lookup(id)
	if o == nil {
		return
	}
	o.suppressed = true
}

// CleanupOf returns the dispose-time user cleanup, or nil.
func (h *Heap) CleanupOf(id ObjectID) func() {
	o := h.lookup(id)
	if o == nil {
		return nil
	}
	return o.cleanup
}

// Disposed reports whether Dispose has completed for the object. Object
// authors are expected to consult this before operating on a payload.
func (h *Heap) Disposed(id ObjectID) bool {
	o := h.lookup(id)
	return o != nil && o.disposed
}

// SetDisposed marks the object disposed.
func (h *Heap) SetDisposed(id ObjectID) {
	o := h.lookup(id)
	if o == nil {
		return
	}
	o.disposed = true
}
