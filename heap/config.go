package heap

import "github.com/joshuapare/gckit/internal/layout"

const (
	// DefaultSegmentSize is the default capacity of the compacting segment.
	DefaultSegmentSize = 4 << 20

	// DefaultLargeSpaceSize is the default capacity of the large object
	// space.
	DefaultLargeSpaceSize = 16 << 20

	// DefaultMaxGeneration is the default generation ceiling. Three
	// generations (0, 1, 2) cover the usual nursery / survivor / tenured
	// split.
	DefaultMaxGeneration = 2
)

// Config sizes a heap. The zero value is usable; every field has a default.
type Config struct {
	// SegmentSize is the capacity of the compacting segment in bytes,
	// rounded up to whole pages.
	SegmentSize int

	// LargeSpaceSize is the capacity of the large object space in bytes,
	// rounded up to whole pages.
	LargeSpaceSize int

	// LargeObjectMin is the payload size, in bytes, at and above which an
	// allocation routes to the large object space.
	LargeObjectMin int

	// MaxGeneration is the saturating generation ceiling.
	MaxGeneration int
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.SegmentSize <= 0 {
		c.SegmentSize = DefaultSegmentSize
	}
	if c.LargeSpaceSize <= 0 {
		c.LargeSpaceSize = DefaultLargeSpaceSize
	}
	if c.LargeObjectMin <= 0 {
		c.LargeObjectMin = layout.DefaultLargeObjectMin
	}
	if c.MaxGeneration <= 0 {
		c.MaxGeneration = DefaultMaxGeneration
	}
	return c
}
