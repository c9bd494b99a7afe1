// SPDX-License-Identifier: MIT
// Package: laso/operator
//
// apply.go — shared shape checks and the column fan-out.

package operator

import (
	"context"
	"fmt"

	"github.com/katalvlaran/laso/block"
	"golang.org/x/sync/errgroup"
)

// checkShapes verifies that dst and src are n-row blocks of equal width.
func checkShapes(method string, n int, dst, src *block.Block) error {
	if src.Rows() != n || dst.Rows() != n || dst.Cols() != src.Cols() {
		return fmt.Errorf("%s: dst %dx%d, src %dx%d for order %d: %w",
			method, dst.Rows(), dst.Cols(), src.Rows(), src.Cols(), n, ErrDimensionMismatch)
	}

	return nil
}

// eachColumn runs fn(y, x) for every column pair, on up to workers goroutines.
// A cancelled ctx stops columns that have not started.
func eachColumn(ctx context.Context, workers int, dst, src *block.Block, fn func(y, x []float64)) error {
	var c int
	if workers <= 1 || src.Cols() == 1 {
		for c = 0; c < src.Cols(); c++ {
			fn(dst.Col(c), src.Col(c))
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c = 0; c < src.Cols(); c++ {
		y, x := dst.Col(c), src.Col(c)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(y, x)
			return nil
		})
	}

	return g.Wait()
}
