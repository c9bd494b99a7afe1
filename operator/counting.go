package operator

import (
	"context"
	"sync/atomic"

	"github.com/katalvlaran/laso/block"
)

// Applier is the method set every operator of this package implements; it
// matches lanczos.Operator.
type Applier interface {
	Apply(ctx context.Context, dst, src *block.Block) error
}

// Counting forwards to another operator and counts calls and columns.
type Counting struct {
	op      Applier
	calls   atomic.Int64
	columns atomic.Int64
}

// NewCounting wraps op.
func NewCounting(op Applier) *Counting { return &Counting{op: op} }

// Apply forwards to the wrapped operator and counts the call, also when it fails.
func (c *Counting) Apply(ctx context.Context, dst, src *block.Block) error {
	c.calls.Add(1)
	c.columns.Add(int64(src.Cols()))

	return c.op.Apply(ctx, dst, src)
}

// Calls returns the number of Apply calls.
func (c *Counting) Calls() int { return int(c.calls.Load()) }

// Columns returns the number of vectors multiplied.
func (c *Counting) Columns() int { return int(c.columns.Load()) }
