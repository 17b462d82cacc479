package heap

// RootProvider enumerates live root references. The heap consumes root
// providers but implements none beyond the static set: stack walking,
// register scanning, and the like belong to the embedding runtime.
type RootProvider interface {
	// Roots appends the provider's current roots to dst and returns it.
	Roots(dst []ObjectID) []ObjectID
}

// StaticRoots is the built-in provider for globals and other explicitly
// pinned references.
type StaticRoots struct {
	ids map[ObjectID]struct{}
}

// NewStaticRoots returns an empty static root set.
func NewStaticRoots() *StaticRoots {
	return &StaticRoots{ids: make(map[ObjectID]struct{})}
}

// Add pins an object as a root.
func (s *StaticRoots) Add(id ObjectID) { s.ids[id] = struct{}{} }

// Remove unpins an object. Removing an absent id is a no-op.
func (s *StaticRoots) Remove(id ObjectID) { delete(s.ids, id) }

// Has reports whether id is pinned.
func (s *StaticRoots) Has(id ObjectID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of pinned roots.
func (s *StaticRoots) Len() int { return len(s.ids) }

// Roots implements RootProvider.
func (s *StaticRoots) Roots(dst []ObjectID) []ObjectID {
	for id := range s.ids {
		dst = append(dst, id)
	}
	return dst
}

// Compile-time interface check
var _ RootProvider = (*StaticRoots)(nil)

// AddRoot pins an object in the heap's static root set.
func (h *Heap) AddRoot(id ObjectID) { h.static.Add(id) }

// RemoveRoot unpins an object from the static root set.
func (h *Heap) RemoveRoot(id ObjectID) { h.static.Remove(id) }

// AddRootProvider registers an additional provider consulted at the start
// of every collection.
func (h *Heap) AddRootProvider(p RootProvider) {
	h.providers = append(h.providers, p)
}

// Roots gathers the current root set from every registered provider. Ids
// that no longer name live objects are skipped.
func (h *Heap) Roots() []ObjectID {
	var all []ObjectID
	for _, p := range h.providers {
		all = p.Roots(all)
	}
	live := all[:0]
	for _, id := range all {
		if h.Contains(id) {
			live = append(live, id)
		}
	}
	return live
}
