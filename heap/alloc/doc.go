// Package alloc provides the raw memory spaces backing a managed heap.
//
// # Overview
//
// Two allocation strategies live here, mirroring the split every
// compacting collector makes:
//
// Segment: bump-pointer space for ordinary objects
//
//   - O(1) allocation: pure pointer bump plus a bounds check
//   - Ascending addresses with no gaps in the steady state
//   - No free list; space is recovered by the compactor sliding live
//     cells to the base and resetting the cursor
//
// LargeSpace: free-list space for oversized objects
//
//   - Address-ordered first-fit free list
//   - Splits on allocation, coalesces adjacent free cells on release
//   - Cells are reclaimed in place and never relocated
//
// # Cell layout
//
// Every allocation (free or in-use) is preceded by an 8-byte header: an
// int32 total size, negative while allocated, followed by the owning
// object id. All cells are 8-byte aligned. Offset zero never names a
// valid cell; the first 8 bytes of each space are reserved.
//
// # Memory backing
//
// On unix the spaces are backed by anonymous mmap so heap memory lives
// outside the Go allocator; elsewhere a plain byte slice is used. Release
// returns the mapping to the OS.
//
// # Thread safety
//
// Spaces are not thread-safe. The owning heap serializes access.
package alloc
