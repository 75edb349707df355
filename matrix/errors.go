package matrix

import "errors"

// Every message is prefixed with "matrix:" so failures are easy to grep.
// Callers match these with errors.Is; context is added with fmt.Errorf("...: %w").
var (
	// ErrInvalidDimension is returned by New when n <= 0.
	ErrInvalidDimension = errors.New("matrix: dimension must be > 0")

	// ErrAllocation is returned by New when n*n elements cannot be reserved:
	// the element count overflows, exceeds the configured memory limit,
	// or the runtime refuses the allocation.
	ErrAllocation = errors.New("matrix: failed to allocate buffer")

	// ErrIndexOutOfBounds is returned by At and Set for any (i, j) outside [0, n).
	ErrIndexOutOfBounds = errors.New("matrix: index out of bounds")
)
