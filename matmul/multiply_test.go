package matmul_test

import (
	"math/rand"
	"testing"

	"matbench/matmul"
	"matbench/matrix"
	"matbench/reduce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFilled(t testing.TB, n int, fill func(*matrix.Buffer)) *matrix.Buffer {
	t.Helper()
	b, err := matrix.New(n)
	require.NoError(t, err)
	fill(b)
	return b
}

func setRows(t *testing.T, b *matrix.Buffer, rows [][]float32) {
	t.Helper()
	for i, row := range rows {
		for j, v := range row {
			require.NoError(t, b.Set(i, j, v))
		}
	}
}

func TestMultiplySmallProduct(t *testing.T) {
	a, _ := matrix.New(2)
	b, _ := matrix.New(2)
	setRows(t, a, [][]float32{{1, 2}, {3, 4}})
	setRows(t, b, [][]float32{{5, 6}, {7, 8}})

	want := [][]float32{{19, 22}, {43, 50}}
	for _, order := range matmul.AllOrders() {
		c, err := matmul.Multiply(a, b, order)
		require.NoError(t, err, order.String())
		for i := range want {
			for j := range want[i] {
				v, err := c.At(i, j)
				require.NoError(t, err)
				assert.Equal(t, want[i][j], v, "%s C(%d,%d)", order, i, j)
			}
		}
	}
}

func TestMultiplyOrdersAgree(t *testing.T) {
	fills := map[string]func(*matrix.Buffer, *matrix.Buffer){
		"sequence": func(a, b *matrix.Buffer) { a.FillSequence(20); b.FillSequence(5) },
		"random": func(a, b *matrix.Buffer) {
			rng := rand.New(rand.NewSource(101))
			a.FillRandomFrom(rng)
			b.FillRandomFrom(rng)
		},
	}
	for name, fill := range fills {
		for _, n := range []int{1, 2, 3, 7, 16, 33} {
			a, _ := matrix.New(n)
			b, _ := matrix.New(n)
			fill(a, b)

			ref, err := matmul.Multiply(a, b, matmul.IJK)
			require.NoError(t, err)
			norm := reduce.Frobenius(ref)

			for _, order := range matmul.AllOrders()[1:] {
				c, err := matmul.Multiply(a, b, order)
				require.NoError(t, err)
				for idx, v := range c.Data() {
					want := ref.Data()[idx]
					assert.InDelta(t, want, v, 1e-5*(norm+1), "%s n=%d %s idx=%d", name, n, order, idx)
				}
			}
		}
	}
}

func TestMultiplyFrobeniusReproducible(t *testing.T) {
	const n = 4
	a := newFilled(t, n, func(b *matrix.Buffer) { b.FillSequence(20) })
	b := newFilled(t, n, func(b *matrix.Buffer) { b.FillSequence(5) })

	for _, order := range matmul.AllOrders() {
		c, err := matmul.Multiply(a, b, order)
		require.NoError(t, err)
		assert.InEpsilon(t, 190.19776, reduce.Frobenius(c), 1e-3, order.String())
		assert.InEpsilon(t, 109.84888, c.Data()[0], 1e-4, order.String())
		assert.InEpsilon(t, 33.17333, reduce.Center(c), 1e-4, order.String())
	}
}

func TestMultiplySingleElement(t *testing.T) {
	a := newFilled(t, 1, func(b *matrix.Buffer) { _ = b.Set(0, 0, 3.5) })
	b := newFilled(t, 1, func(b *matrix.Buffer) { _ = b.Set(0, 0, -2) })

	for _, order := range matmul.AllOrders() {
		c, err := matmul.Multiply(a, b, order)
		require.NoError(t, err)
		v, _ := c.At(0, 0)
		require.Equal(t, float32(-7), v)
	}
}

func TestMultiplyDimensionMismatch(t *testing.T) {
	a := newFilled(t, 3, func(b *matrix.Buffer) { b.FillSequence(1) })
	b := newFilled(t, 4, func(b *matrix.Buffer) { b.FillSequence(1) })

	c, err := matmul.Multiply(a, b, matmul.IJK)
	require.ErrorIs(t, err, matmul.ErrDimensionMismatch)
	require.Nil(t, c)

	// a mismatched C is rejected before anything is written to it
	b3 := newFilled(t, 3, func(b *matrix.Buffer) { b.FillSequence(1) })
	c4, _ := matrix.New(4)
	c4.FillSequence(9)
	before := append([]float32(nil), c4.Data()...)
	err = matmul.MultiplyInto(c4, a, b3, matmul.JKI)
	require.ErrorIs(t, err, matmul.ErrDimensionMismatch)
	require.Equal(t, before, c4.Data())
}

func TestMultiplyIntoRejectsAliasing(t *testing.T) {
	a := newFilled(t, 3, func(b *matrix.Buffer) { b.FillSequence(1) })
	b := newFilled(t, 3, func(b *matrix.Buffer) { b.FillSequence(2) })

	require.ErrorIs(t, matmul.MultiplyInto(a, a, b, matmul.IJK), matmul.ErrAliasedOperands)
	require.ErrorIs(t, matmul.MultiplyInto(b, a, b, matmul.IJK), matmul.ErrAliasedOperands)
}

func TestMultiplyIntoAccumulates(t *testing.T) {
	a := newFilled(t, 5, func(b *matrix.Buffer) { b.FillSequence(3) })
	b := newFilled(t, 5, func(b *matrix.Buffer) { b.FillSequence(2) })

	once, err := matmul.Multiply(a, b, matmul.JKI)
	require.NoError(t, err)

	c, _ := matrix.New(5)
	require.NoError(t, matmul.MultiplyInto(c, a, b, matmul.JKI))
	require.NoError(t, matmul.MultiplyInto(c, a, b, matmul.JKI))
	for idx, v := range c.Data() {
		assert.InDelta(t, 2*once.Data()[idx], v, 1e-3)
	}
}

func TestMultiplyUnknownOrder(t *testing.T) {
	a := newFilled(t, 2, func(b *matrix.Buffer) {})
	_, err := matmul.Multiply(a, a, matmul.LoopOrder(42))
	require.ErrorIs(t, err, matmul.ErrUnknownLoopOrder)
}

func TestMultiplyWorkersMatchSerial(t *testing.T) {
	const n = 37
	rng := rand.New(rand.NewSource(101))
	a := newFilled(t, n, func(b *matrix.Buffer) { b.FillRandomFrom(rng) })
	b := newFilled(t, n, func(b *matrix.Buffer) { b.FillRandomFrom(rng) })

	for _, order := range matmul.AllOrders() {
		serial, err := matmul.Multiply(a, b, order)
		require.NoError(t, err)
		for _, workers := range []int{2, 3, 8, n, 2 * n} {
			parallel, err := matmul.Multiply(a, b, order, matmul.WithWorkers(workers))
			require.NoError(t, err)
			require.Equal(t, serial.Data(), parallel.Data(), "%s workers=%d", order, workers)
		}
	}
}

func TestParseLoopOrder(t *testing.T) {
	for _, order := range matmul.AllOrders() {
		got, err := matmul.ParseLoopOrder(order.String())
		require.NoError(t, err)
		require.Equal(t, order, got)
	}

	got, err := matmul.ParseLoopOrder(" JKI ")
	require.NoError(t, err)
	require.Equal(t, matmul.JKI, got)

	_, err = matmul.ParseLoopOrder("ijj")
	require.ErrorIs(t, err, matmul.ErrUnknownLoopOrder)

	require.Equal(t, "LoopOrder(9)", matmul.LoopOrder(9).String())
}

func TestParseLoopOrders(t *testing.T) {
	orders, err := matmul.ParseLoopOrders("")
	require.NoError(t, err)
	require.Equal(t, matmul.AllOrders(), orders)

	orders, err = matmul.ParseLoopOrders("ijk,kji")
	require.NoError(t, err)
	require.Equal(t, []matmul.LoopOrder{matmul.IJK, matmul.KJI}, orders)

	_, err = matmul.ParseLoopOrders("ijk,xyz")
	require.ErrorIs(t, err, matmul.ErrUnknownLoopOrder)
}

func TestFlopCount(t *testing.T) {
	require.Equal(t, 2.0*1024*1024*1024, matmul.FlopCount(1024))
}
