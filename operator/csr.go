// SPDX-License-Identifier: MIT
// Package: laso/operator
//
// csr.go — symmetric matrix in compressed sparse row form.
//
// Contract:
//   • NewCSR takes entries of either triangle; an off-diagonal entry (i,j)
//     also sets (j,i). Duplicates are summed.
//   • Rows are stored in full (both triangles), columns sorted per row, so a
//     product is one pass over the stored entries.
//
// Complexity:
//   • Build: O(nnz·log nnz) for sorting.
//   • Apply: O(nnz·cols).

package operator

import (
	"context"
	"fmt"
	"sort"

	"github.com/katalvlaran/laso/block"
)

const methodCSR = "CSR"

// Entry is one matrix element A[Row][Col] = Value.
type Entry struct {
	Row, Col int
	Value    float64
}

// CSR is a symmetric sparse matrix.
type CSR struct {
	n      int
	rowPtr []int     // len n+1
	colIdx []int     // len nnz
	vals   []float64 // len nnz
	cfg    config
}

// NewCSR builds the order-n symmetric matrix with the given entries.
func NewCSR(n int, entries []Entry, opts ...Option) (*CSR, error) {
	if n < 1 {
		return nil, fmt.Errorf("%s: n=%d: %w", methodCSR, n, ErrTooSmall)
	}

	var (
		full []Entry
		e    Entry
		i, k int
	)
	full = make([]Entry, 0, 2*len(entries))
	for _, e = range entries {
		if e.Row < 0 || e.Row >= n || e.Col < 0 || e.Col >= n {
			return nil, fmt.Errorf("%s: entry (%d,%d) of order %d: %w", methodCSR, e.Row, e.Col, n, ErrIndexOutOfRange)
		}
		full = append(full, e)
		if e.Row != e.Col {
			full = append(full, Entry{Row: e.Col, Col: e.Row, Value: e.Value})
		}
	}
	sort.Slice(full, func(a, b int) bool {
		if full[a].Row != full[b].Row {
			return full[a].Row < full[b].Row
		}
		return full[a].Col < full[b].Col
	})

	m := &CSR{n: n, rowPtr: make([]int, n+1), cfg: resolve(opts)}
	for i = 0; i < len(full); i = k {
		// Sum the run of duplicates.
		e = full[i]
		for k = i + 1; k < len(full) && full[k].Row == e.Row && full[k].Col == e.Col; k++ {
			e.Value += full[k].Value
		}
		m.colIdx = append(m.colIdx, e.Col)
		m.vals = append(m.vals, e.Value)
		m.rowPtr[e.Row+1]++
	}
	for i = 0; i < n; i++ {
		m.rowPtr[i+1] += m.rowPtr[i]
	}

	return m, nil
}

// Order returns n.
func (m *CSR) Order() int { return m.n }

// NNZ returns the number of stored entries (both triangles).
func (m *CSR) NNZ() int { return len(m.vals) }

// At returns A[i][j]. Complexity: O(log row length).
func (m *CSR) At(i, j int) float64 {
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	k := lo + sort.SearchInts(m.colIdx[lo:hi], j)
	if k < hi && m.colIdx[k] == j {
		return m.vals[k]
	}

	return 0
}

// Apply sets dst = A·src, one column per goroutine.
func (m *CSR) Apply(ctx context.Context, dst, src *block.Block) error {
	if err := checkShapes("CSR.Apply", m.n, dst, src); err != nil {
		return err
	}

	return eachColumn(ctx, m.cfg.workers, dst, src, m.mulVec)
}

// mulVec sets y = A·x.
func (m *CSR) mulVec(y, x []float64) {
	var (
		i, k int
		sum  float64
	)
	for i = 0; i < m.n; i++ {
		sum = 0
		for k = m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sum += m.vals[k] * x[m.colIdx[k]]
		}
		y[i] = sum
	}
}
