package heap

// rememberedSet records references that cross from an older generation
// into a younger one, keyed src → targets. It plays the role a card table
// plays in address-based collectors: a partial collection seeds its mark
// stack from these edges instead of scanning every older object.
//
// The AddReference write barrier is the only producer. Promotion never
// creates an old→young edge on its own, because every in-scope survivor of
// a pass is promoted together with the in-scope objects it references, so
// their relative order is preserved.
type rememberedSet map[ObjectID]map[ObjectID]int

func (rs rememberedSet) record(src, dst ObjectID) {
	targets := rs[src]
	if targets == nil {
		targets = make(map[ObjectID]int)
		rs[src] = targets
	}
	targets[dst]++
}

func (rs rememberedSet) remove(src, dst ObjectID) {
	targets := rs[src]
	if targets == nil {
		return
	}
	if targets[dst] > 1 {
		targets[dst]--
		return
	}
	delete(targets, dst)
	if len(targets) == 0 {
		delete(rs, src)
	}
}

// drop removes every edge touching id, in either direction. Called when
// the object is reclaimed.
func (rs rememberedSet) drop(id ObjectID) {
	delete(rs, id)
	for src, targets := range rs {
		delete(targets, id)
		if len(targets) == 0 {
			delete(rs, src)
		}
	}
}

// seeds returns the targets of edges whose source lies outside the 0..maxGen
// scope and whose target lies inside it. Stale edges (both endpoints now on
// the same side) are skipped but kept; they cost a map entry, not
// correctness.
func (rs rememberedSet) seeds(h *Heap, maxGen int) []ObjectID {
	var out []ObjectID
	for src, targets := range rs {
		if h.InScope(src, maxGen) || !h.Contains(src) {
			continue
		}
		for dst := range targets {
			if h.InScope(dst, maxGen) {
				out = append(out, dst)
			}
		}
	}
	return out
}

// RememberedEdges returns the total number of recorded cross-generation
// edges. Exposed for stats and tests.
func (h *Heap) RememberedEdges() int {
	n := 0
	for _, targets := range h.remembered {
		n += len(targets)
	}
	return n
}
