package operator

import (
	"context"

	"github.com/katalvlaran/laso/block"
)

// Diagonal is the operator diag(d). Its eigenvalues are the entries of d and
// its eigenvectors the unit vectors.
type Diagonal []float64

// Apply sets dst = diag(d)·src.
// Complexity: O(n·cols).
func (d Diagonal) Apply(_ context.Context, dst, src *block.Block) error {
	if err := checkShapes("Diagonal.Apply", len(d), dst, src); err != nil {
		return err
	}

	var c, i int
	var x, y []float64
	for c = 0; c < src.Cols(); c++ {
		x, y = src.Col(c), dst.Col(c)
		for i = range d {
			y[i] = d[i] * x[i]
		}
	}

	return nil
}
