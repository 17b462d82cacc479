package gc

import (
	"time"

	"github.com/joshuapare/gckit/heap"
)

// Stats accumulates collector activity across passes.
type Stats struct {
	Collections     int64
	FullCollections int64

	ObjectsReclaimed int64
	BytesReclaimed   int64
	ObjectsPromoted  int64
	WeakRefsCleared  int64
	FinalizersQueued int64
	FinalizersRun    int64
	CellsRelocated   int64

	LastPause  time.Duration
	TotalPause time.Duration
}

func (s *Stats) note(rep PassReport, maxGen int) {
	s.Collections++
	if rep.Scope == maxGen {
		s.FullCollections++
	}
	s.ObjectsReclaimed += int64(rep.Reclaimed)
	s.BytesReclaimed += rep.BytesReclaimed
	s.ObjectsPromoted += int64(rep.Promoted)
	s.WeakRefsCleared += int64(rep.WeakRefsCleared)
	s.FinalizersQueued += int64(rep.Queued)
	s.CellsRelocated += int64(rep.Relocated)
	s.LastPause = rep.Pause
	s.TotalPause += rep.Pause
}

// Snapshot is a point-in-time view of heap occupancy, suitable for
// display.
type Snapshot struct {
	Stats

	Objects           int
	UsedBytes         int64
	SegmentUsed       int64
	SegmentCapacity   int64
	PendingFinalizers int
	WeakRefs          int
	RememberedEdges   int

	// ByGeneration counts live objects per generation, index 0 first.
	ByGeneration []int
}

// Stats returns the accumulated counters.
func (r *Runtime) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Snapshot returns counters plus current occupancy.
func (r *Runtime) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Stats:             r.stats,
		Objects:           r.h.ObjectCount(),
		UsedBytes:         r.h.UsedBytes(),
		SegmentUsed:       int64(r.h.SegmentCursor()),
		SegmentCapacity:   int64(r.h.SegmentCapacity()),
		PendingFinalizers: r.queue.Len(),
		WeakRefs:          r.weaks.Len(),
		RememberedEdges:   r.h.RememberedEdges(),
		ByGeneration:      make([]int, r.h.MaxGeneration()+1),
	}
	r.h.ForEachObject(func(id heap.ObjectID) {
		gen, err := r.h.GenerationOf(id)
		if err == nil && gen < len(snap.ByGeneration) {
			snap.ByGeneration[gen]++
		}
	})
	return snap
}
