package heap

import "errors"

var (
	// ErrBadObject indicates an id that names no live object.
	ErrBadObject = errors.New("heap: no such object")

	// ErrBadSize indicates a negative allocation size.
	ErrBadSize = errors.New("heap: bad allocation size")

	// ErrClosed indicates use of a heap after Close.
	ErrClosed = errors.New("heap: closed")
)
