package alloc

import (
	"sort"

	"github.com/joshuapare/gckit/internal/layout"
)

// freeSpan describes one free cell in the large object space. Spans are
// kept sorted by offset so adjacent cells can be coalesced on release.
type freeSpan struct {
	off  int32
	size int32
}

// LargeSpace is the free-list space for oversized objects. Cells here are
// never relocated, so fragmentation is handled the traditional way:
// first-fit search, split on allocation, coalesce on release.
type LargeSpace struct {
	mem      []byte
	capacity int32

	// free is the address-ordered free list. Invariant: spans are disjoint,
	// non-adjacent (adjacent spans are coalesced eagerly), and every span is
	// 8-byte aligned with size >= layout.CellHeaderSize.
	free []freeSpan

	used int64
}

// NewLargeSpace reserves a large object space of at least the given
// capacity, rounded up to whole pages. The entire usable range starts as a
// single free span.
func NewLargeSpace(capacity int) (*LargeSpace, error) {
	if capacity <= layout.CellHeaderSize || int64(capacity) > layout.MaxSpaceSize {
		return nil, ErrCapacity
	}
	capacity = layout.AlignPage(capacity)

	mem, err := reserve(capacity)
	if err != nil {
		return nil, err
	}

	ls := &LargeSpace{
		mem:      mem,
		capacity: int32(capacity),
		free: []freeSpan{
			{off: layout.SpaceBase, size: int32(capacity) - layout.SpaceBase},
		},
	}
	layout.WriteFreeHeader(mem, layout.SpaceBase, ls.free[0].size)

	return ls, nil
}

// Alloc carves a cell for a payload of the given size using first-fit. The
// chosen span is split when the remainder can still hold a cell; otherwise
// the whole span is handed out.
func (ls *LargeSpace) Alloc(payload int, id uint32) (uint32, error) {
	if payload < 0 {
		return 0, ErrCapacity
	}
	need := int32(layout.CellSize(payload))

	for i, span := range ls.free {
		if span.size < need {
			continue
		}

		off := span.off
		remainder := span.size - need
		if remainder >= layout.CellHeaderSize {
			ls.free[i] = freeSpan{off: off + need, size: remainder}
			layout.WriteFreeHeader(ls.mem, int(off+need), remainder)
		} else {
			// Hand out the whole span rather than leave an unusable sliver.
			need = span.size
			ls.free = append(ls.free[:i], ls.free[i+1:]...)
		}

		layout.WriteCellHeader(ls.mem, int(off), need, id)
		ls.used += int64(need)

		return uint32(off), nil
	}

	return 0, ErrNoSpace
}

// Free releases the cell at addr back to the free list, coalescing with
// adjacent free spans.
func (ls *LargeSpace) Free(addr uint32) error {
	off := int32(addr)
	if off < layout.SpaceBase || off+layout.CellHeaderSize > ls.capacity {
		return ErrBadAddr
	}

	size, _ := layout.ReadCellHeader(ls.mem, int(off))
	if size >= 0 {
		return ErrNotAllocated
	}
	size = -size

	ls.used -= int64(size)

	// Insert sorted by offset.
	i := sort.Search(len(ls.free), func(i int) bool { return ls.free[i].off > off })
	ls.free = append(ls.free, freeSpan{})
	copy(ls.free[i+1:], ls.free[i:])
	ls.free[i] = freeSpan{off: off, size: size}

	// Coalesce with the successor, then the predecessor.
	if i+1 < len(ls.free) && ls.free[i].off+ls.free[i].size == ls.free[i+1].off {
		ls.free[i].size += ls.free[i+1].size
		ls.free = append(ls.free[:i+1], ls.free[i+2:]...)
	}
	if i > 0 && ls.free[i-1].off+ls.free[i-1].size == ls.free[i].off {
		ls.free[i-1].size += ls.free[i].size
		ls.free = append(ls.free[:i], ls.free[i+1:]...)
		i--
	}

	layout.WriteFreeHeader(ls.mem, int(ls.free[i].off), ls.free[i].size)

	return nil
}

// Bytes returns the backing memory. Callers must not retain the slice
// across a Release.
func (ls *LargeSpace) Bytes() []byte { return ls.mem }

// Used returns the bytes held by allocated cells, headers included.
func (ls *LargeSpace) Used() int64 { return ls.used }

// Capacity returns the space capacity in bytes.
func (ls *LargeSpace) Capacity() int32 { return ls.capacity }

// FreeSpans returns the number of spans on the free list. Exposed for
// integrity checks and tests.
func (ls *LargeSpace) FreeSpans() int { return len(ls.free) }

// LargestFree returns the size of the largest free span.
func (ls *LargeSpace) LargestFree() int32 {
	var max int32
	for _, span := range ls.free {
		if span.size > max {
			max = span.size
		}
	}
	return max
}

// Release returns the backing memory to the OS. The space must not be used
// afterwards.
func (ls *LargeSpace) Release() error {
	mem := ls.mem
	ls.mem = nil
	ls.free = nil
	ls.capacity = 0
	ls.used = 0
	return release(mem)
}
