package alloc

import "errors"

var (
	// ErrNoSpace indicates the space cannot hold the requested cell. For the
	// segment this is the signal that a collection is needed.
	ErrNoSpace = errors.New("alloc: no space for cell")

	// ErrBadAddr indicates an invalid or out-of-bounds cell address.
	ErrBadAddr = errors.New("alloc: bad cell address")

	// ErrNotAllocated indicates an attempt to free a cell that is not marked
	// as allocated.
	ErrNotAllocated = errors.New("alloc: cell is not allocated")

	// ErrCapacity indicates a requested capacity outside the supported range.
	ErrCapacity = errors.New("alloc: capacity out of range")
)
