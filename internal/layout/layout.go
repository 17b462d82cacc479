// Package layout houses the low-level memory layout of heap cells. The goal
// is to keep the byte-level conventions in one place, allocation-free, and
// independent from the public API so higher-level packages can orchestrate
// objects in a more ergonomic form.
package layout

const (
	// CellHeaderSize is the number of bytes used by the cell header preceding
	// every allocation (free or in-use) within a heap space.
	//
	// Layout (little-endian):
	//   0x00  int32   cell size including header; negative when allocated
	//   0x04  uint32  owning object id (zero in free cells)
	CellHeaderSize = 8

	// CellAlignment is the required alignment of every cell. All cell sizes
	// and addresses are multiples of this.
	CellAlignment = 8

	// CellAlignmentMask is CellAlignment - 1, used by the align helpers.
	CellAlignmentMask = CellAlignment - 1

	// SpaceBase is the first usable offset within a heap space. The first
	// CellHeaderSize bytes are reserved so that address zero never names a
	// valid cell and can serve as the nil address.
	SpaceBase = CellHeaderSize

	// PageSize is the granularity segment capacities are rounded to.
	PageSize = 4096

	// PageAlignmentMask is PageSize - 1, used by AlignPage.
	PageAlignmentMask = PageSize - 1

	// DefaultLargeObjectMin is the default size threshold, in payload bytes,
	// above which an allocation is routed to the large object space.
	DefaultLargeObjectMin = 85000

	// LargeAddrBit is set in an address to mark it as belonging to the large
	// object space rather than the compacting segment.
	LargeAddrBit = uint32(1) << 31

	// MaxSpaceSize caps a single space at 2GB so that signed 32-bit cell
	// arithmetic never overflows and the large-address bit stays free.
	MaxSpaceSize = int64(1) << 31
)

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
func Align8(n int) int {
	return (n + CellAlignmentMask) & ^CellAlignmentMask
}

// Align8I32 returns n aligned up to the next 8-byte boundary.
// int32 version for use in allocator code to avoid G115 warnings.
func Align8I32(n int32) int32 {
	return (n + CellAlignmentMask) & ^CellAlignmentMask
}

// AlignPage returns n aligned up to the next page (4096-byte) boundary.
// Used for segment capacities, which are always whole pages.
func AlignPage(n int) int {
	return (n + PageAlignmentMask) & ^PageAlignmentMask
}

// CellSize returns the total aligned cell size for a payload of n bytes.
func CellSize(payload int) int {
	return Align8(payload + CellHeaderSize)
}
