package gc

import (
	"time"

	"github.com/joshuapare/gckit/heap"
	"github.com/joshuapare/gckit/heap/compact"
	"github.com/joshuapare/gckit/heap/trace"
	"github.com/joshuapare/gckit/internal/layout"
)

// PassReport summarizes one collection pass.
type PassReport struct {
	Scope int // highest generation collected

	Marked          int   // objects found reachable, resurrections included
	Reclaimed       int   // objects destroyed
	BytesReclaimed  int64 // cell bytes of destroyed objects, headers included
	Promoted        int   // survivors whose generation advanced
	Queued          int   // objects newly moved to the finalization queue
	WeakRefsCleared int   // weak entries emptied by this pass
	Relocated       int   // segment cells the compactor moved
	Pause           time.Duration
}

// collectLocked runs one stop-the-world pass over generations 0..maxGen.
// Caller holds r.mu. The sequence is fixed:
//
//  1. trace from roots + remembered seeds
//  2. intercept unreachable finalizable objects (resurrect for this pass)
//  3. reconcile the weak table against the same liveness snapshot
//  4. reclaim the dead
//  5. compact the segment and rehome weak entries
//  6. promote in-scope survivors
//
// Steps 2–6 all consume the snapshot step 1 (extended by step 2) produced;
// no object is both promoted and reclaimed in one pass.
func (r *Runtime) collectLocked(maxGen int) PassReport {
	start := time.Now()

	if maxGen < 0 || maxGen > r.h.MaxGeneration() {
		maxGen = r.h.MaxGeneration()
	}
	rep := PassReport{Scope: maxGen}

	// 1. Mark.
	rep.Marked = trace.Run(r.h, maxGen)

	// 2. Finalization interception. Objects already pending from an earlier
	// pass stay alive until their finalizer has run; newly unreachable
	// finalizable objects enter the queue now. Either way the object and
	// everything it references survive this pass.
	var resurrected []heap.ObjectID
	r.h.ForEachObject(func(id heap.ObjectID) {
		if !r.h.InScope(id, maxGen) || r.h.IsMarked(id) {
			return
		}
		if r.h.Finalizable(id) {
			r.h.SetPending(id, true)
			r.queue.Enqueue(id)
			rep.Queued++
			resurrected = append(resurrected, id)
		} else if r.h.PendingFinalization(id) {
			resurrected = append(resurrected, id)
		}
	})
	rep.Marked += trace.Mark(r.h, resurrected, maxGen)

	// 3. Weak reconciliation, against the snapshot that includes the
	// resurrections: a finalizable object is "alive" for one extra pass.
	rep.WeakRefsCleared = r.weaks.Reconcile(func(id heap.ObjectID) bool {
		return r.h.Alive(id, maxGen)
	})

	// 4. Reclaim.
	var dead []heap.ObjectID
	r.h.ForEachObject(func(id heap.ObjectID) {
		if r.h.InScope(id, maxGen) && !r.h.IsMarked(id) {
			dead = append(dead, id)
		}
	})
	for _, id := range dead {
		size, _ := r.h.SizeOf(id)
		rep.BytesReclaimed += int64(layout.CellSize(size))
		if err := r.h.Reclaim(id); err != nil {
			r.log.Warn("reclaim failed", "object", id, "err", err)
			continue
		}
		rep.Reclaimed++
	}

	// 5. Compact and rehome.
	relocations := compact.Run(r.h)
	rep.Relocated = len(relocations)
	r.weaks.Rehome(relocations)

	// 6. Promote survivors that were in scope.
	r.h.ForEachObject(func(id heap.ObjectID) {
		if r.h.InScope(id, maxGen) && r.h.IsMarked(id) {
			r.h.Promote(id)
			rep.Promoted++
		}
	})

	rep.Pause = time.Since(start)
	r.stats.note(rep, r.h.MaxGeneration())

	r.log.Debug("collection pass",
		"scope", rep.Scope,
		"marked", rep.Marked,
		"reclaimed", rep.Reclaimed,
		"bytes", rep.BytesReclaimed,
		"promoted", rep.Promoted,
		"queued", rep.Queued,
		"weak_cleared", rep.WeakRefsCleared,
		"relocated", rep.Relocated,
		"pause", rep.Pause,
	)

	return rep
}
