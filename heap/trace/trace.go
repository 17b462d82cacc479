// Package trace implements the mark phase: the reachability closure over
// the object graph, computed with an explicit mark stack so arbitrarily
// deep or cyclic graphs cannot overflow the goroutine stack.
package trace

import "github.com/joshuapare/gckit/heap"

// Mark computes the transitive closure of the seed set and sets the mark
// bit on every object reached, restricted to a collection scoped to
// generations 0..maxGen.
//
// Scope rule: every seed is marked, but the tracer only walks through
// objects inside the scope. Out-of-scope objects are implicitly alive and
// their edges into the scope arrive as seeds via the remembered set, so
// descending into them would only repeat work a previous full trace
// already did.
//
// Cycle safety comes from Mark's at-most-once contract: an object is
// pushed only when its mark bit flips, so each object is expanded at most
// once regardless of how many edges reach it.
//
// Returns the number of objects newly marked.
func Mark(h *heap.Heap, seeds []heap.ObjectID, maxGen int) int {
	marked := 0
	var stack []heap.ObjectID

	for _, id := range seeds {
		if h.Mark(id) {
			marked++
			if h.InScope(id, maxGen) {
				stack = append(stack, id)
			}
		}
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, ref := range h.References(id) {
			if !h.Mark(ref) {
				continue
			}
			marked++
			if h.InScope(ref, maxGen) {
				stack = append(stack, ref)
			}
		}
	}

	return marked
}

// Run performs a full mark for a collection scoped to 0..maxGen: clears
// all mark bits, then marks from the heap's roots plus the remembered-set
// seeds. Returns the number of objects marked live.
func Run(h *heap.Heap, maxGen int) int {
	h.ClearMarks()

	seeds := h.Roots()
	seeds = append(seeds, h.RememberedSeeds(maxGen)...)

	return Mark(h, seeds, maxGen)
}
