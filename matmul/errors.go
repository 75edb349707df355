package matmul

import "errors"

var (
	// ErrDimensionMismatch is returned when A, B and C do not share one dimension.
	// It is detected before C is touched.
	ErrDimensionMismatch = errors.New("matmul: dimension mismatch")

	// ErrAliasedOperands is returned when C is the same buffer as A or B.
	ErrAliasedOperands = errors.New("matmul: result aliases an operand")

	// ErrUnknownLoopOrder is returned for a loop order outside the six permutations.
	ErrUnknownLoopOrder = errors.New("matmul: unknown loop order")
)
