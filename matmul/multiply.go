// Package matmul multiplies square matrix.Buffers with the naive triple loop.
//
// The loop nesting is a parameter (see LoopOrder). Only the memory access
// pattern changes between orders; the k reduction for a cell always runs
// from 0 to n-1, so the result does not depend on the order chosen.
package matmul

import (
	"fmt"
	"sync"

	"matbench/matrix"
)

// Option configures Multiply and MultiplyInto.
type Option func(*settings)

type settings struct {
	workers int
}

// WithWorkers splits the columns of C into n contiguous ranges and computes
// each on its own goroutine. Values below 2 keep the run single threaded.
// A cell is never split across workers, so the result matches the serial run.
func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = n }
}

// Multiply returns a new buffer C = A·B computed with the given loop order.
func Multiply(a, b *matrix.Buffer, order LoopOrder, opts ...Option) (*matrix.Buffer, error) {
	if err := validate(a, b, order); err != nil {
		return nil, err
	}
	c, err := matrix.New(a.N())
	if err != nil {
		return nil, err
	}
	if err := MultiplyInto(c, a, b, order, opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MultiplyInto accumulates A·B into c, so c must be zeroed beforehand for
// c to hold the product. Every check happens before c is written.
func MultiplyInto(c, a, b *matrix.Buffer, order LoopOrder, opts ...Option) error {
	if err := validate(a, b, order); err != nil {
		return err
	}
	if !c.SameShape(a) {
		return fmt.Errorf("C is %dx%d, A is %dx%d: %w", c.N(), c.N(), a.N(), a.N(), ErrDimensionMismatch)
	}
	if c == a || c == b {
		return ErrAliasedOperands
	}

	s := settings{workers: 1}
	for _, opt := range opts {
		opt(&s)
	}

	run := kernels[order]
	n := a.N()
	workers := s.workers
	if workers > n {
		workers = n
	}
	if workers < 2 {
		run(c, a, b, 0, n)
		return nil
	}

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for jlo := 0; jlo < n; jlo += chunk {
		jhi := jlo + chunk
		if jhi > n {
			jhi = n
		}
		wg.Add(1)
		go func(jlo, jhi int) {
			defer wg.Done()
			run(c, a, b, jlo, jhi)
		}(jlo, jhi)
	}
	wg.Wait()
	return nil
}

func validate(a, b *matrix.Buffer, order LoopOrder) error {
	if !order.valid() {
		return fmt.Errorf("%v: %w", order, ErrUnknownLoopOrder)
	}
	if !a.SameShape(b) {
		return fmt.Errorf("A is %dx%d, B is %dx%d: %w", a.N(), a.N(), b.N(), b.N(), ErrDimensionMismatch)
	}
	return nil
}

// FlopCount returns the number of floating point operations (one multiply and
// one add per inner iteration) for an n×n product.
func FlopCount(n int) float64 {
	fn := float64(n)
	return 2 * fn * fn * fn
}
