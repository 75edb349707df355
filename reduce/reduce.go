// Package reduce turns a result buffer into something small enough to print.
package reduce

import (
	"fmt"
	"io"
	"math"
	"strings"

	"matbench/matrix"
)

// Frobenius returns sqrt(sum |m[i,j]|^2), accumulated in float64.
// Rows are walked outermost, matching the reference C driver.
func Frobenius(m *matrix.Buffer) float64 {
	n := m.N()
	data := m.Data()
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := math.Abs(float64(data[m.Index(i, j)]))
			sum += v * v
		}
	}
	return math.Sqrt(sum)
}

// Sample returns m[i,j].
func Sample(m *matrix.Buffer, i, j int) (float32, error) {
	return m.At(i, j)
}

// Center returns the element at (n/2, n/2).
func Center(m *matrix.Buffer) float32 {
	c := m.N() / 2
	return m.Data()[m.Index(c, c)]
}

// Mode selects what a run reports about its result.
type Mode int

const (
	// ModeFrobenius reports the Frobenius norm.
	ModeFrobenius Mode = iota
	// ModeSample reports the center element.
	ModeSample
	// ModeFull prints every element.
	ModeFull
)

var modeNames = [...]string{ModeFrobenius: "frobenius", ModeSample: "sample", ModeFull: "full"}

func (m Mode) String() string {
	if m >= ModeFrobenius && m <= ModeFull {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "frobenius" (or "frob"), "sample" and "full".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frobenius", "frob":
		return ModeFrobenius, nil
	case "sample", "center":
		return ModeSample, nil
	case "full":
		return ModeFull, nil
	}
	return 0, fmt.Errorf("reduce: unknown report mode %q (want frobenius, sample or full)", s)
}

// Report writes the summary of c selected by mode.
func Report(w io.Writer, c *matrix.Buffer, mode Mode) error {
	switch mode {
	case ModeFrobenius:
		_, err := fmt.Fprintf(w, "C has Frobenius norm: %g\n", Frobenius(c))
		return err
	case ModeSample:
		mid := c.N() / 2
		_, err := fmt.Fprintf(w, "C(%d,%d)=%f\n", mid, mid, Center(c))
		return err
	case ModeFull:
		if _, err := fmt.Fprintln(w, "matrix C (final answer)"); err != nil {
			return err
		}
		return c.Print(w)
	}
	return fmt.Errorf("reduce: unknown report mode %v", mode)
}
