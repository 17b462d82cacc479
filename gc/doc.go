// Package gc ties the heap, tracer, compactor, weak reference table, and
// finalization queue into a generational collector behind one public
// surface.
//
// # Usage
//
//	rt, err := gc.NewRuntime(heap.Config{})
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	id, err := rt.Allocate(64)          // collects on exhaustion
//	rt.AddRoot(id)
//	rt.Collect(0)                       // young-generation pass
//	rt.Collect(rt.MaxGeneration())      // full pass
//
// # Concurrency model
//
// One mutex serializes everything: mutator operations between passes,
// and the whole of each pass. A pass is stop-the-world and runs to
// completion once started — partial compaction would leave the
// relocation map half-applied. Promotion, reclamation, weak-table
// reconciliation, and finalization interception are all computed from
// the single reachability snapshot the pass's trace produced.
//
// # Failure containment
//
// An allocation that still fails after a full pass reports
// ErrOutOfMemory to its caller and nothing else: the collector stays
// usable. Finalizer and cleanup panics are captured per invocation.
package gc
