// Package block provides the vector-block container used by the eigensolver.
// Block is a column-major n×m matrix whose columns are the vectors of a
// Lanczos block, a Ritz basis, or an eigenvector set. Columns are contiguous,
// so every vector kernel (dot, axpy, norm) runs on a plain []float64.
//
// A Block may be a view into a larger one (Columns, TopRows); views share
// storage with their parent and keep the parent's column stride.
package block

import (
	"fmt"
	"strings"
)

// blockErrorf wraps an underlying error with Block method context.
func blockErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Block.%s(%d,%d): %w", method, row, col, err)
}

// Block is a column-major matrix of float64 values.
type Block struct {
	rows, cols int       // logical shape
	stride     int       // distance between starts of consecutive columns, >= rows
	data       []float64 // backing storage shared with views
}

// New creates a rows×cols Block initialized to zeros.
// Stage 1 (Validate): ensure rows and cols > 0.
// Stage 2 (Prepare): allocate one contiguous slice.
// Complexity: O(rows*cols) time and memory.
func New(rows, cols int) (*Block, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("block.New(%d,%d): %w", rows, cols, ErrBadShape)
	}

	return &Block{rows: rows, cols: cols, stride: rows, data: make([]float64, rows*cols)}, nil
}

// FromColumns builds a Block whose columns are copies of cols.
// All columns must have the same non-zero length.
// Complexity: O(n*m).
func FromColumns(cols ...[]float64) (*Block, error) {
	if len(cols) == 0 || len(cols[0]) == 0 {
		return nil, fmt.Errorf("block.FromColumns: %w", ErrBadShape)
	}
	b, err := New(len(cols[0]), len(cols))
	if err != nil {
		return nil, err
	}

	var j int
	for j = range cols {
		if len(cols[j]) != b.rows {
			return nil, fmt.Errorf("block.FromColumns: column %d has %d rows, want %d: %w",
				j, len(cols[j]), b.rows, ErrDimensionMismatch)
		}
		copy(b.Col(j), cols[j])
	}

	return b, nil
}

// Rows returns the vector length.
func (b *Block) Rows() int { return b.rows }

// Cols returns the number of vectors.
func (b *Block) Cols() int { return b.cols }

// Col returns column j as a slice aliasing the block storage.
// It panics if j is out of range, like slice indexing.
// Complexity: O(1).
func (b *Block) Col(j int) []float64 {
	if j < 0 || j >= b.cols {
		panic(blockErrorf("Col", 0, j, ErrOutOfRange))
	}
	off := j * b.stride

	return b.data[off : off+b.rows : off+b.rows]
}

// indexOf computes the flat index for (row, col) or returns ErrOutOfRange.
func (b *Block) indexOf(method string, row, col int) (int, error) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return 0, blockErrorf(method, row, col, ErrOutOfRange)
	}

	return col*b.stride + row, nil
}

// At returns the element at (row, col).
// Complexity: O(1).
func (b *Block) At(row, col int) (float64, error) {
	idx, err := b.indexOf("At", row, col)
	if err != nil {
		return 0, err
	}

	return b.data[idx], nil
}

// Set assigns v at (row, col).
// Complexity: O(1).
func (b *Block) Set(row, col int, v float64) error {
	idx, err := b.indexOf("Set", row, col)
	if err != nil {
		return err
	}
	b.data[idx] = v

	return nil
}

// Columns returns a view of columns [from, to) sharing storage with b.
// Complexity: O(1).
func (b *Block) Columns(from, to int) (*Block, error) {
	if from < 0 || to > b.cols || from >= to {
		return nil, fmt.Errorf("Block.Columns[%d:%d] of %d: %w", from, to, b.cols, ErrOutOfRange)
	}
	off := from * b.stride
	end := off + (to-from-1)*b.stride + b.rows

	return &Block{rows: b.rows, cols: to - from, stride: b.stride, data: b.data[off:end]}, nil
}

// TopRows returns a view of the first rows entries of every column.
// Complexity: O(1).
func (b *Block) TopRows(rows int) (*Block, error) {
	if rows <= 0 || rows > b.rows {
		return nil, fmt.Errorf("Block.TopRows(%d) of %d: %w", rows, b.rows, ErrOutOfRange)
	}

	return &Block{rows: rows, cols: b.cols, stride: b.stride, data: b.data}, nil
}

// Zero sets every element to zero.
// Complexity: O(rows*cols).
func (b *Block) Zero() {
	var j int
	for j = 0; j < b.cols; j++ {
		clear(b.Col(j))
	}
}

// CopyFrom overwrites b with src; shapes must match.
// Complexity: O(rows*cols).
func (b *Block) CopyFrom(src *Block) error {
	if src.rows != b.rows || src.cols != b.cols {
		return fmt.Errorf("Block.CopyFrom: %dx%d into %dx%d: %w",
			src.rows, src.cols, b.rows, b.cols, ErrDimensionMismatch)
	}

	var j int
	for j = 0; j < b.cols; j++ {
		copy(b.Col(j), src.Col(j))
	}

	return nil
}

// Clone returns a compact deep copy of b.
// Complexity: O(rows*cols) time and memory.
func (b *Block) Clone() *Block {
	c := &Block{rows: b.rows, cols: b.cols, stride: b.rows, data: make([]float64, b.rows*b.cols)}
	_ = c.CopyFrom(b) // shapes match by construction

	return c
}

// SwapCols exchanges columns i and k.
// Complexity: O(rows).
func (b *Block) SwapCols(i, k int) {
	if i == k {
		return
	}
	ci, ck := b.Col(i), b.Col(k)

	var r int
	for r = range ci {
		ci[r], ck[r] = ck[r], ci[r]
	}
}

// String implements fmt.Stringer, printing one matrix row per line.
func (b *Block) String() string {
	var (
		sb   strings.Builder
		i, j int
	)
	for i = 0; i < b.rows; i++ {
		sb.WriteByte('[')
		for j = 0; j < b.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%g", b.data[j*b.stride+i])
		}
		sb.WriteString("]\n")
	}

	return sb.String()
}
