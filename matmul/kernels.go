package matmul

import "matbench/matrix"

// kernel accumulates C[i,j] += A[i,k]*B[k,j] for every column j in [jlo, jhi).
// In every variant k runs upwards for a given cell, so all six produce the
// same per-cell summation order.
type kernel func(c, a, b *matrix.Buffer, jlo, jhi int)

var kernels = [...]kernel{
	IJK: mulIJK,
	IKJ: mulIKJ,
	JIK: mulJIK,
	JKI: mulJKI,
	KIJ: mulKIJ,
	KJI: mulKJI,
}

func mulIJK(c, a, b *matrix.Buffer, jlo, jhi int) {
	n := a.N()
	ad := a.Data()
	for i := 0; i < n; i++ {
		for j := jlo; j < jhi; j++ {
			cj, bj := c.Col(j), b.Col(j)
			acc := cj[i]
			for k := 0; k < n; k++ {
				acc += ad[a.Index(i, k)] * bj[k]
			}
			cj[i] = acc
		}
	}
}

func mulIKJ(c, a, b *matrix.Buffer, jlo, jhi int) {
	n := a.N()
	bd, cd := b.Data(), c.Data()
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			aik := a.Col(k)[i]
			for j := jlo; j < jhi; j++ {
				cd[c.Index(i, j)] += aik * bd[b.Index(k, j)]
			}
		}
	}
}

func mulJIK(c, a, b *matrix.Buffer, jlo, jhi int) {
	n := a.N()
	ad := a.Data()
	for j := jlo; j < jhi; j++ {
		cj, bj := c.Col(j), b.Col(j)
		for i := 0; i < n; i++ {
			acc := cj[i]
			for k := 0; k < n; k++ {
				acc += ad[a.Index(i, k)] * bj[k]
			}
			cj[i] = acc
		}
	}
}

func mulJKI(c, a, b *matrix.Buffer, jlo, jhi int) {
	n := a.N()
	for j := jlo; j < jhi; j++ {
		cj, bj := c.Col(j), b.Col(j)
		for k := 0; k < n; k++ {
			ak, bkj := a.Col(k), bj[k]
			for i := range cj {
				cj[i] += ak[i] * bkj
			}
		}
	}
}

func mulKIJ(c, a, b *matrix.Buffer, jlo, jhi int) {
	n := a.N()
	bd, cd := b.Data(), c.Data()
	for k := 0; k < n; k++ {
		ak := a.Col(k)
		for i := 0; i < n; i++ {
			aik := ak[i]
			for j := jlo; j < jhi; j++ {
				cd[c.Index(i, j)] += aik * bd[b.Index(k, j)]
			}
		}
	}
}

func mulKJI(c, a, b *matrix.Buffer, jlo, jhi int) {
	n := a.N()
	for k := 0; k < n; k++ {
		ak := a.Col(k)
		for j := jlo; j < jhi; j++ {
			cj, bkj := c.Col(j), b.Col(j)[k]
			for i := range cj {
				cj[i] += ak[i] * bkj
			}
		}
	}
}
