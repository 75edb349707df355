// Package matrix holds the square float32 buffer the benchmark multiplies.
//
// A Buffer is stored flat and column-major: element (i, j) lives at index
// i + n*j. Index and Col are the only places that mapping is written down;
// everything else in the module goes through them.
package matrix

import (
	"fmt"
	"math"
)

// ElemSize is the size in bytes of one stored element.
const ElemSize = 4

// Buffer is an n×n column-major matrix of float32 values.
type Buffer struct {
	n    int
	data []float32
}

// Option configures New.
type Option func(*config)

type config struct {
	memoryLimit int64
}

// WithMemoryLimit makes New fail with ErrAllocation when the buffer would need
// more than limit bytes. A limit <= 0 disables the check.
func WithMemoryLimit(limit int64) Option {
	return func(c *config) { c.memoryLimit = limit }
}

// New allocates a zeroed n×n buffer.
// It returns ErrInvalidDimension for n <= 0 and ErrAllocation when the storage
// cannot be reserved; no partially built buffer is ever returned.
func New(n int, opts ...Option) (b *Buffer, err error) {
	if n <= 0 {
		return nil, fmt.Errorf("New(%d): %w", n, ErrInvalidDimension)
	}
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	// n*n and n*n*ElemSize must both fit in an int
	if n > math.MaxInt/n || n*n > math.MaxInt/ElemSize {
		return nil, fmt.Errorf("New(%d): element count overflows: %w", n, ErrAllocation)
	}
	size := int64(n) * int64(n) * ElemSize
	if cfg.memoryLimit > 0 && size > cfg.memoryLimit {
		return nil, fmt.Errorf("New(%d): %d bytes exceeds limit of %d: %w", n, size, cfg.memoryLimit, ErrAllocation)
	}

	// make panics with "len out of range" for lengths the runtime cannot
	// address; running out of memory is a fatal error and is not recovered here
	// (WithMemoryLimit is the guard for that)
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = fmt.Errorf("New(%d): %v: %w", n, r, ErrAllocation)
		}
	}()
	data := make([]float32, n*n)

	return &Buffer{n: n, data: data}, nil
}

// N returns the dimension of the buffer.
func (b *Buffer) N() int {
	return b.n
}

// Len returns the number of stored elements, n*n.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the size of the backing storage in bytes.
func (b *Buffer) Bytes() int64 {
	return int64(len(b.data)) * ElemSize
}

// Data exposes the backing slice in storage (column-major) order.
func (b *Buffer) Data() []float32 {
	return b.data
}

// Index maps (i, j) to its storage index without bounds checking.
func (b *Buffer) Index(i, j int) int {
	return i + b.n*j
}

// Col returns column j as a subslice of the backing storage; Col(j)[i] is
// element (i, j). j is not checked beyond the slice bounds.
func (b *Buffer) Col(j int) []float32 {
	off := b.n * j
	return b.data[off : off+b.n : off+b.n]
}

func (b *Buffer) checked(method string, i, j int) (int, error) {
	if i < 0 || i >= b.n || j < 0 || j >= b.n {
		return 0, fmt.Errorf("Buffer.%s(%d,%d) with n=%d: %w", method, i, j, b.n, ErrIndexOutOfBounds)
	}
	return b.Index(i, j), nil
}

// At returns element (i, j).
func (b *Buffer) At(i, j int) (float32, error) {
	idx, err := b.checked("At", i, j)
	if err != nil {
		return 0, err
	}
	return b.data[idx], nil
}

// Set stores v at (i, j).
func (b *Buffer) Set(i, j int, v float32) error {
	idx, err := b.checked("Set", i, j)
	if err != nil {
		return err
	}
	b.data[idx] = v
	return nil
}

// SameShape reports whether b and o have the same dimension.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.n == o.n
}
