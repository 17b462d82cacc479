//go:build unix

package alloc

import "golang.org/x/sys/unix"

// reserve maps an anonymous, zero-filled region of the given size. Keeping
// heap spaces outside the Go allocator means their contents are invisible
// to Go's own collector and munmap returns them to the OS in one call.
func reserve(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
}

// release unmaps a region obtained from reserve.
func release(mem []byte) error {
	if mem == nil {
		return nil
	}
	return unix.Munmap(mem)
}
