// Package verify recomputes a product with a library GEMM so a naive result
// can be checked against an independent implementation.
//
// Both libraries expect row-major data. The raw slice of a column-major n×n
// buffer is the row-major layout of its transpose, so the references compute
// Bᵀ·Aᵀ on the raw slices; (Bᵀ·Aᵀ) in row-major order is A·B in column-major
// order, which is exactly the layout of a matrix.Buffer.
package verify

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gorgonia.org/tensor"

	"matbench/matrix"
)

// ErrUnknownBackend is returned for a backend name or value that is not supported.
var ErrUnknownBackend = errors.New("verify: unknown backend")

// Backend selects the library used for the reference product.
type Backend int

const (
	// None disables verification.
	None Backend = iota
	// BLAS uses gonum's native blas32 Sgemm.
	BLAS
	// Tensor uses gorgonia's dense tensor MatMul.
	Tensor
)

func (b Backend) String() string {
	switch b {
	case None:
		return "none"
	case BLAS:
		return "blas"
	case Tensor:
		return "tensor"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// ParseBackend accepts "none", "blas" or "tensor".
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "blas", "gonum":
		return BLAS, nil
	case "tensor", "gorgonia":
		return Tensor, nil
	}
	return None, fmt.Errorf("%q: %w", s, ErrUnknownBackend)
}

// Reference returns A·B computed by the chosen backend.
func Reference(a, b *matrix.Buffer, backend Backend) (*matrix.Buffer, error) {
	if !a.SameShape(b) {
		return nil, fmt.Errorf("verify: A is %dx%d, B is %dx%d", a.N(), a.N(), b.N(), b.N())
	}
	c, err := matrix.New(a.N())
	if err != nil {
		return nil, err
	}
	switch backend {
	case BLAS:
		gemmBLAS(c, a, b)
	case Tensor:
		if err := gemmTensor(c, a, b); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%v: %w", backend, ErrUnknownBackend)
	}
	return c, nil
}

func gemmBLAS(c, a, b *matrix.Buffer) {
	n := a.N()
	general := func(m *matrix.Buffer) blas32.General {
		return blas32.General{Rows: n, Cols: n, Stride: n, Data: m.Data()}
	}
	// row-major C' = B'·A' where X' is the raw column-major slice of X
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, general(b), general(a), 0, general(c))
}

func gemmTensor(c, a, b *matrix.Buffer) error {
	n := a.N()
	backed := func(m *matrix.Buffer) *tensor.Dense {
		data := make([]float32, m.Len())
		copy(data, m.Data())
		return tensor.New(tensor.WithShape(n, n), tensor.WithBacking(data))
	}
	out, err := tensor.MatMul(backed(b), backed(a))
	if err != nil {
		return fmt.Errorf("verify: tensor matmul: %w", err)
	}
	data, ok := out.Data().([]float32)
	if !ok || len(data) != c.Len() {
		return fmt.Errorf("verify: tensor matmul returned %T of unexpected size", out.Data())
	}
	copy(c.Data(), data)
	return nil
}

// MaxRelativeError returns max |got-want| divided by max(max |want|, 1).
// Scaling by the largest reference element keeps cancellation near zero
// from dominating the figure.
func MaxRelativeError(got, want *matrix.Buffer) (float64, error) {
	if !got.SameShape(want) {
		return 0, fmt.Errorf("verify: comparing %dx%d with %dx%d", got.N(), got.N(), want.N(), want.N())
	}
	var worst, scale float64 = 0, 1
	wd := want.Data()
	for idx, g := range got.Data() {
		w := float64(wd[idx])
		scale = math.Max(scale, math.Abs(w))
		diff := math.Abs(float64(g) - w)
		if diff > worst || math.IsNaN(diff) {
			worst = diff
		}
	}
	return worst / scale, nil
}
