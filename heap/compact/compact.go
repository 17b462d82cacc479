// Package compact implements the relocation phase: live cells slide
// toward the segment base, the cursor rewinds, and an old→new address map
// comes back for everything that still holds a raw address (the weak
// reference table). Object ids never change, so the reference graph needs
// no rewriting.
package compact

import (
	"sort"

	"github.com/joshuapare/gckit/heap"
	"github.com/joshuapare/gckit/internal/layout"
)

// Run slides every live segment cell toward the base, preserving relative
// order, updates the arena table, and resets the segment cursor to just
// past the last relocated cell. The large object space is untouched.
//
// The returned map holds an entry for every cell that actually moved,
// keyed by old address. A pass with nothing reclaimed returns an empty
// map.
//
// Compaction is all-or-nothing by construction: the slide only ever moves
// cells downward over reclaimed slack, so a cell's destination never
// overlaps an unprocessed cell and the heap is consistent after every
// iteration.
func Run(h *heap.Heap) map[heap.Addr]heap.Addr {
	// Snapshot live segment cells in address order.
	type cell struct {
		id   heap.ObjectID
		addr int32
		size int32 // total cell size, header included
	}
	var cells []cell
	h.ForEachObject(func(id heap.ObjectID) {
		addr, err := h.AddressOf(id)
		if err != nil || heap.IsLarge(addr) {
			return
		}
		size, _ := h.SizeOf(id)
		cells = append(cells, cell{
			id:   id,
			addr: int32(addr),
			size: int32(layout.CellSize(size)),
		})
	})
	sort.Slice(cells, func(i, j int) bool { return cells[i].addr < cells[j].addr })

	mem := h.SegmentBytes()
	relocations := make(map[heap.Addr]heap.Addr)

	cursor := int32(layout.SpaceBase)
	for _, c := range cells {
		if c.addr != cursor {
			// Destination is always below the source, so a forward copy
			// within the same slice is safe.
			copy(mem[cursor:cursor+c.size], mem[c.addr:c.addr+c.size])
			relocations[heap.Addr(c.addr)] = heap.Addr(cursor)
			h.Relocate(c.id, heap.Addr(cursor))
		}
		cursor += c.size
	}

	h.ResetSegmentCursor(cursor)

	return relocations
}
