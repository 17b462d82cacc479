package finalize

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshuapare/gckit/heap"
)

// Queue holds objects whose finalizers are due. Order is FIFO by
// unreachability detection; nothing stronger is promised.
type Queue struct {
	pending []heap.ObjectID
}

// NewQueue returns an empty finalization queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue adds an object found unreachable by the current pass.
func (q *Queue) Enqueue(id heap.ObjectID) {
	q.pending = append(q.pending, id)
}

// Remove drops an object from the queue, if present. Called when a
// late Dispose suppresses an already-queued finalizer.
func (q *Queue) Remove(id heap.ObjectID) {
	for i, p := range q.pending {
		if p == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// Len returns the number of objects awaiting finalization.
func (q *Queue) Len() int { return len(q.pending) }

// Drain runs every queued finalizer. A finalizer that panics does not
// stop the drain; its panic is captured and the remaining finalizers
// still run. The context is consulted between invocations only — a
// running finalizer is never interrupted.
//
// After a finalizer runs, its object leaves the pending state, so the
// next collection that finds it unreachable reclaims it for real.
//
// Returns the number of finalizers that ran and the joined errors of any
// that failed.
func (q *Queue) Drain(ctx context.Context, h *heap.Heap) (int, error) {
	ran := 0
	var errs []error

	for len(q.pending) > 0 {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		id := q.pending[0]
		q.pending = q.pending[1:]

		fn := h.FinalizerOf(id)
		h.SetPending(id, false)
		if fn == nil {
			continue
		}

		if err := invoke(id, fn); err != nil {
			errs = append(errs, err)
		}
		ran++
	}

	return ran, errors.Join(errs...)
}

// invoke isolates one finalizer call so a panic in user cleanup code
// cannot take down the drain loop.
func invoke(id heap.ObjectID, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("finalize: finalizer for object %d panicked: %v", id, r)
		}
	}()
	fn()
	return nil
}
