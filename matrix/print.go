package matrix

import (
	"bufio"
	"fmt"
	"io"
)

// Print writes one "array[i][j]=v" line per element, walking storage order
// (column j outer, row i inner). It is meant for small diagnostic runs.
func (b *Buffer) Print(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for j := 0; j < b.n; j++ {
		col := b.Col(j)
		for i, v := range col {
			if _, err := fmt.Fprintf(bw, "array[%d][%d]=%f\n", i, j, v); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
