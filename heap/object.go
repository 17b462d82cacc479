package heap

// ObjectID is the stable handle for a managed object. Ids are never
// reissued while the object is alive; zero is never a valid id.
type ObjectID uint32

// Addr is a byte offset naming an object's current cell. The high bit
// (layout.LargeAddrBit) marks addresses in the large object space; all
// other addresses point into the compacting segment and are invalidated by
// compaction. Zero is the nil address.
type Addr uint32

// object is one row of the arena table.
type object struct {
	addr Addr
	size int32 // payload bytes, excluding the cell header
	gen  uint8

	marked bool

	// Finalization / dispose state machine. finalizer is nil once it has
	// run or was never declared; pending means the object sits on the
	// finalization queue; suppressed and disposed are set by the dispose
	// protocol.
	finalizer  func()
	cleanup    func()
	pending    bool
	suppressed bool
	disposed   bool

	// refs is the outgoing adjacency list. Duplicates are allowed; the
	// tracer's mark bit makes multiplicity irrelevant.
	refs []ObjectID

	live bool
}

// AllocOption customizes a single allocation.
type AllocOption func(*object)

// WithFinalizer declares a finalizer. The object will not be reclaimed on
// the pass that first finds it unreachable; it is queued, fn runs during a
// later RunFinalizers drain, and only the following pass frees the memory.
func WithFinalizer(fn func()) AllocOption {
	return func(o *object) { o.finalizer = fn }
}

// WithCleanup declares the user half of the deterministic dispose protocol.
// fn runs at most once, when Dispose is first called on the object.
func WithCleanup(fn func()) AllocOption {
	return func(o *object) { o.cleanup = fn }
}
