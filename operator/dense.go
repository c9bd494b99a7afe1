package operator

import (
	"context"

	"github.com/katalvlaran/laso/block"
	"gonum.org/v1/gonum/mat"
)

// Dense applies a gonum symmetric matrix. It suits moderate orders where the
// matrix is available explicitly, and serves as a reference for the others.
type Dense struct {
	a   mat.Symmetric
	cfg config
}

// NewDense wraps a. The matrix is referenced, not copied.
func NewDense(a mat.Symmetric, opts ...Option) *Dense {
	return &Dense{a: a, cfg: resolve(opts)}
}

// Order returns n.
func (d *Dense) Order() int { return d.a.SymmetricDim() }

// Apply sets dst = A·src, one column per goroutine.
// Complexity: O(n²·cols).
func (d *Dense) Apply(ctx context.Context, dst, src *block.Block) error {
	n := d.a.SymmetricDim()
	if err := checkShapes("Dense.Apply", n, dst, src); err != nil {
		return err
	}

	return eachColumn(ctx, d.cfg.workers, dst, src, func(y, x []float64) {
		mat.NewVecDense(n, y).MulVec(d.a, mat.NewVecDense(n, x))
	})
}
