package alloc

import (
	"github.com/joshuapare/gckit/internal/layout"
)

// Segment is a bump-pointer space for ordinary (relocatable) objects. It
// matches the classic nursery design: allocation is a pointer bump, there is
// no free list, and space is recovered only by compaction.
//
// Key characteristics:
//   - O(1) allocation: bump the cursor, write a header, done
//   - Successive allocations return strictly ascending addresses
//   - ResetCursor is the compactor's hook for reclaiming the tail
type Segment struct {
	mem []byte

	// cursor is the offset where the next allocation will occur. Everything
	// below it is live cells or compacted-away slack; everything at or above
	// it is unused. Invariant: layout.SpaceBase <= cursor <= capacity.
	cursor int32

	capacity int32
}

// NewSegment reserves a segment of at least the given capacity, rounded up
// to whole pages.
func NewSegment(capacity int) (*Segment, error) {
	if capacity <= layout.CellHeaderSize || int64(capacity) > layout.MaxSpaceSize {
		return nil, ErrCapacity
	}
	capacity = layout.AlignPage(capacity)

	mem, err := reserve(capacity)
	if err != nil {
		return nil, err
	}

	return &Segment{
		mem:      mem,
		cursor:   layout.SpaceBase,
		capacity: int32(capacity),
	}, nil
}

// Alloc carves a cell for a payload of the given size and stamps its header
// with the owning object id. Returns the cell address (offset of the
// header). Fails with ErrNoSpace when the remaining tail cannot hold the
// cell; the caller is expected to collect and retry.
func (s *Segment) Alloc(payload int, id uint32) (uint32, error) {
	if payload < 0 {
		return 0, ErrCapacity
	}
	need := int32(layout.CellSize(payload))

	if s.cursor+need > s.capacity || s.cursor+need < s.cursor {
		return 0, ErrNoSpace
	}

	off := s.cursor
	s.cursor += need

	layout.WriteCellHeader(s.mem, int(off), need, id)

	return uint32(off), nil
}

// Bytes returns the backing memory. Callers must not retain the slice
// across a Release.
func (s *Segment) Bytes() []byte { return s.mem }

// Cursor returns the next-free offset.
func (s *Segment) Cursor() int32 { return s.cursor }

// Capacity returns the segment capacity in bytes.
func (s *Segment) Capacity() int32 { return s.capacity }

// Used returns the bytes consumed below the cursor, excluding the reserved
// base.
func (s *Segment) Used() int64 { return int64(s.cursor - layout.SpaceBase) }

// ResetCursor rewinds the cursor after compaction has slid live cells to
// the base. The new cursor must point immediately past the last live cell.
func (s *Segment) ResetCursor(cursor int32) {
	if cursor < layout.SpaceBase {
		cursor = layout.SpaceBase
	}
	if cursor > s.capacity {
		cursor = s.capacity
	}
	s.cursor = cursor
}

// Contains reports whether addr names a cell start strictly below the
// cursor.
func (s *Segment) Contains(addr uint32) bool {
	return addr >= layout.SpaceBase && int32(addr) < s.cursor
}

// Release returns the backing memory to the OS. The segment must not be
// used afterwards.
func (s *Segment) Release() error {
	mem := s.mem
	s.mem = nil
	s.cursor = 0
	s.capacity = 0
	return release(mem)
}
