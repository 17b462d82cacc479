//go:build !unix

package alloc

// reserve falls back to a plain byte slice on platforms without anonymous
// mmap support.
func reserve(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// release lets the slice be collected normally.
func release(mem []byte) error {
	return nil
}
