package layout

import "encoding/binary"

// Binary encoding utilities for little-endian integers. Go's standard
// library implementation is already compiled to single loads and stores on
// the platforms we care about, so these are thin wrappers.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutI32 writes an int32 value to the buffer at the specified offset in little-endian format.
func PutI32(b []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(b[off:off+4], uint32(v))
}

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// ReadI32 reads an int32 value from the buffer at the specified offset in little-endian format.
func ReadI32(b []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off : off+4]))
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// WriteCellHeader writes an allocated-cell header at off: the negated total
// size followed by the owning object id.
func WriteCellHeader(b []byte, off int, size int32, id uint32) {
	PutI32(b, off, -size)
	PutU32(b, off+4, id)
}

// WriteFreeHeader writes a free-cell header at off: the positive size with a
// zero object id.
func WriteFreeHeader(b []byte, off int, size int32) {
	PutI32(b, off, size)
	PutU32(b, off+4, 0)
}

// ReadCellHeader reads a cell header at off. size is negative for allocated
// cells and positive for free cells, matching the on-heap encoding.
func ReadCellHeader(b []byte, off int) (size int32, id uint32) {
	return ReadI32(b, off), ReadU32(b, off+4)
}
