// Package weak implements the weak reference table: an indirection layer
// that observes objects without extending their lifetime. Registered
// entries are not roots; after each collection, entries whose target did
// not survive are emptied, permanently, and surviving entries are rehomed
// through the compactor's relocation map.
package weak

import (
	"errors"

	"github.com/joshuapare/gckit/heap"
)

// ErrBadTarget indicates an attempt to register a weak reference to an id
// that names no live object.
var ErrBadTarget = errors.New("weak: target is not a live object")

// Handle names one weak reference. Handles stay valid after their target
// is reclaimed; they simply resolve to nothing. Zero is never a valid
// handle.
type Handle uint32

// entry is one table row. Once zapped, a row never becomes live again: a
// resolve can yield "empty", never a dangling address.
type entry struct {
	target heap.ObjectID
	addr   heap.Addr
	zapped bool
}

// Table is a weak reference table for a single heap. Not thread-safe; the
// owning runtime serializes access alongside the heap itself.
type Table struct {
	entries map[Handle]*entry
	next    Handle
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[Handle]*entry)}
}

// Register creates a weak reference to the given object and returns its
// handle.
func (t *Table) Register(h *heap.Heap, id heap.ObjectID) (Handle, error) {
	addr, err := h.AddressOf(id)
	if err != nil {
		return 0, ErrBadTarget
	}
	t.next++
	hd := t.next
	t.entries[hd] = &entry{target: id, addr: addr}
	return hd, nil
}

// Resolve returns the target's id, or ok=false if the handle is unknown,
// dropped, or the target has been reclaimed. Callers must branch on ok;
// "empty" is a result, not an error.
func (t *Table) Resolve(hd Handle) (heap.ObjectID, bool) {
	e := t.entries[hd]
	if e == nil || e.zapped {
		return 0, false
	}
	return e.target, true
}

// AddressOf returns the target's current cell address. Kept current by
// Rehome after every compaction.
func (t *Table) AddressOf(hd Handle) (heap.Addr, bool) {
	e := t.entries[hd]
	if e == nil || e.zapped {
		return 0, false
	}
	return e.addr, true
}

// IsAlive reports whether the target was still reachable as of the most
// recent collection that had it in scope.
func (t *Table) IsAlive(hd Handle) bool {
	e := t.entries[hd]
	return e != nil && !e.zapped
}

// Drop removes a handle from the table entirely.
func (t *Table) Drop(hd Handle) {
	delete(t.entries, hd)
}

// Len returns the number of registered handles, zapped ones included.
func (t *Table) Len() int { return len(t.entries) }

// Reconcile empties every entry whose target the pass found dead. The
// verdict function is the pass's liveness snapshot — the same one that
// drove promotion and reclamation, so a finalizable object resurrected for
// this pass still counts as alive here. Returns the number of entries
// zapped.
func (t *Table) Reconcile(alive func(heap.ObjectID) bool) int {
	zapped := 0
	for _, e := range t.entries {
		if e.zapped {
			continue
		}
		if !alive(e.target) {
			e.zapped = true
			e.target = 0
			e.addr = 0
			zapped++
		}
	}
	return zapped
}

// Rehome rewrites cached addresses through the compactor's relocation
// map.
func (t *Table) Rehome(relocations map[heap.Addr]heap.Addr) {
	if len(relocations) == 0 {
		return
	}
	for _, e := range t.entries {
		if e.zapped {
			continue
		}
		if addr, moved := relocations[e.addr]; moved {
			e.addr = addr
		}
	}
}
