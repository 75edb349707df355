package reduce_test

import (
	"bytes"
	"math"
	"testing"

	"matbench/matrix"
	"matbench/reduce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// toDense copies b into a row-major gonum matrix element by element.
func toDense(t *testing.T, b *matrix.Buffer) *mat.Dense {
	t.Helper()
	n := b.N()
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v, err := b.At(i, j)
			require.NoError(t, err)
			d.Set(i, j, float64(v))
		}
	}
	return d
}

func TestFrobeniusMatchesGonum(t *testing.T) {
	for _, n := range []int{1, 2, 5, 32} {
		b, err := matrix.New(n)
		require.NoError(t, err)
		b.FillRandom(int64(n))

		want := mat.Norm(toDense(t, b), 2)
		assert.InEpsilon(t, want, reduce.Frobenius(b), 1e-9, "n=%d", n)
	}
}

func TestFrobeniusKnownValues(t *testing.T) {
	b, _ := matrix.New(2)
	require.Zero(t, reduce.Frobenius(b))

	_ = b.Set(0, 0, 3)
	_ = b.Set(1, 1, -4)
	require.Equal(t, 5.0, reduce.Frobenius(b))
}

func TestFrobeniusWiderAccumulator(t *testing.T) {
	// 4096 elements of 1e4 squared each: a float32 sum would lose digits
	b, _ := matrix.New(64)
	for idx := range b.Data() {
		b.Data()[idx] = 1e4
	}
	require.InDelta(t, 64*1e4, reduce.Frobenius(b), 1e-6)
}

func TestSampleAndCenter(t *testing.T) {
	b, _ := matrix.New(5)
	require.NoError(t, b.Set(2, 2, 42))
	require.NoError(t, b.Set(1, 3, 7))

	require.Equal(t, float32(42), reduce.Center(b))

	v, err := reduce.Sample(b, 1, 3)
	require.NoError(t, err)
	require.Equal(t, float32(7), v)

	_, err = reduce.Sample(b, 5, 0)
	require.ErrorIs(t, err, matrix.ErrIndexOutOfBounds)
}

func TestParseMode(t *testing.T) {
	cases := map[string]reduce.Mode{
		"frobenius": reduce.ModeFrobenius,
		"FROB":      reduce.ModeFrobenius,
		"sample":    reduce.ModeSample,
		"center":    reduce.ModeSample,
		" full ":    reduce.ModeFull,
	}
	for in, want := range cases {
		got, err := reduce.ParseMode(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := reduce.ParseMode("trace")
	require.Error(t, err)
	require.Equal(t, "Mode(7)", reduce.Mode(7).String())
}

func TestReport(t *testing.T) {
	b, _ := matrix.New(2)
	_ = b.Set(0, 0, 3)
	_ = b.Set(1, 1, 4)

	var buf bytes.Buffer
	require.NoError(t, reduce.Report(&buf, b, reduce.ModeFrobenius))
	require.Equal(t, "C has Frobenius norm: 5\n", buf.String())

	buf.Reset()
	require.NoError(t, reduce.Report(&buf, b, reduce.ModeSample))
	require.Equal(t, "C(1,1)=4.000000\n", buf.String())

	buf.Reset()
	require.NoError(t, reduce.Report(&buf, b, reduce.ModeFull))
	require.Contains(t, buf.String(), "matrix C (final answer)\n")
	require.Contains(t, buf.String(), "array[1][1]=4.000000\n")

	require.Error(t, reduce.Report(&buf, b, reduce.Mode(-1)))
}

func TestFrobeniusIsOrderInvariant(t *testing.T) {
	b, _ := matrix.New(6)
	b.FillSequence(10)
	var sum float64
	for _, v := range b.Data() {
		sum += float64(v) * float64(v)
	}
	require.InEpsilon(t, math.Sqrt(sum), reduce.Frobenius(b), 1e-12)
}
