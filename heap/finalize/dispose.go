package finalize

import (
	"errors"
	"fmt"

	"github.com/joshuapare/gckit/heap"
)

// ErrUseAfterDispose is the error object authors should surface when an
// operation reaches a disposed object. The subsystem does not raise it
// itself — checking heap.Disposed before acting is the author's contract.
var ErrUseAfterDispose = errors.New("finalize: use after dispose")

// Dispose performs deterministic cleanup: the object's user cleanup runs
// first, then the base cleanup — suppression of any declared finalizer,
// removal from the queue if it already got there, and the disposed mark —
// runs unconditionally in a defer, whether the user cleanup returned or
// panicked. This mirrors the try/finally shape destructor-style languages
// compile their disposal syntax into.
//
// Disposing an already-disposed object is a no-op. A panic in the user
// cleanup is returned as an error, after the base cleanup has run.
func Dispose(h *heap.Heap, q *Queue, id heap.ObjectID) (err error) {
	if !h.Contains(id) {
		return heap.ErrBadObject
	}
	if h.Disposed(id) {
		return nil
	}

	defer func() {
		h.Suppress(id)
		q.Remove(id)
		h.SetPending(id, false)
		h.SetDisposed(id)
		if r := recover(); r != nil {
			err = fmt.Errorf("finalize: cleanup for object %d panicked: %v", id, r)
		}
	}()

	if fn := h.CleanupOf(id); fn != nil {
		fn()
	}

	return nil
}
