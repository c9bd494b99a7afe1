// SPDX-License-Identifier: MIT
// Package: laso/operator
//
// laplacian.go — graph Laplacians L = D − A of unit-weight path, cycle and
// grid graphs, as CSR operators, with their closed-form spectra.
//
// Contract:
//   • Path(n): n ≥ 2; edges (i−1, i) for i = 1..n−1.
//     Spectrum 2 − 2cos(kπ/n), k = 0..n−1.
//   • Cycle(n): n ≥ 3; path edges plus (n−1, 0).
//     Spectrum 2 − 2cos(2πk/n), k = 0..n−1.
//   • Grid(rows, cols): rows, cols ≥ 1, vertex r·cols + c; right and bottom
//     neighbours. Spectrum λ_p(rows) + λ_q(cols) over path spectra.
//   • Spectra are returned sorted ascending.
//
// Determinism: entries are emitted in increasing vertex order.

package operator

import (
	"fmt"
	"math"
	"sort"
)

const (
	methodPath  = "Path"
	methodCycle = "Cycle"
	methodGrid  = "Grid"

	minPathNodes  = 2
	minCycleNodes = 3
	minGridDim    = 1
)

// laplacian accumulates unit edges into CSR entries.
type laplacian struct {
	degree  []float64
	entries []Entry
}

func newLaplacian(n int) *laplacian {
	return &laplacian{degree: make([]float64, n)}
}

func (l *laplacian) edge(u, v int) {
	l.degree[u]++
	l.degree[v]++
	l.entries = append(l.entries, Entry{Row: max(u, v), Col: min(u, v), Value: -1})
}

func (l *laplacian) build(opts []Option) (*CSR, error) {
	var i int
	for i = range l.degree {
		l.entries = append(l.entries, Entry{Row: i, Col: i, Value: l.degree[i]})
	}

	return NewCSR(len(l.degree), l.entries, opts...)
}

// Path returns the Laplacian of the path P_n.
func Path(n int, opts ...Option) (*CSR, error) {
	if n < minPathNodes {
		return nil, fmt.Errorf("%s: n=%d < min=%d: %w", methodPath, n, minPathNodes, ErrTooSmall)
	}
	l := newLaplacian(n)
	var i int
	for i = 1; i < n; i++ {
		l.edge(i-1, i)
	}

	return l.build(opts)
}

// Cycle returns the Laplacian of the cycle C_n.
func Cycle(n int, opts ...Option) (*CSR, error) {
	if n < minCycleNodes {
		return nil, fmt.Errorf("%s: n=%d < min=%d: %w", methodCycle, n, minCycleNodes, ErrTooSmall)
	}
	l := newLaplacian(n)
	var i int
	for i = 1; i < n; i++ {
		l.edge(i-1, i)
	}
	l.edge(n-1, 0)

	return l.build(opts)
}

// Grid returns the Laplacian of the rows×cols orthogonal grid.
func Grid(rows, cols int, opts ...Option) (*CSR, error) {
	if rows < minGridDim || cols < minGridDim {
		return nil, fmt.Errorf("%s: rows=%d, cols=%d (each must be ≥ %d): %w",
			methodGrid, rows, cols, minGridDim, ErrTooSmall)
	}
	l := newLaplacian(rows * cols)
	var r, c, v int
	for r = 0; r < rows; r++ {
		for c = 0; c < cols; c++ {
			v = r*cols + c
			if c+1 < cols {
				l.edge(v, v+1)
			}
			if r+1 < rows {
				l.edge(v, v+cols)
			}
		}
	}

	return l.build(opts)
}

// PathSpectrum returns the eigenvalues of Path(n), ascending.
func PathSpectrum(n int) []float64 {
	out := make([]float64, n)
	var k int
	for k = 0; k < n; k++ {
		out[k] = 2 - 2*math.Cos(float64(k)*math.Pi/float64(n))
	}

	return out
}

// CycleSpectrum returns the eigenvalues of Cycle(n), ascending.
func CycleSpectrum(n int) []float64 {
	out := make([]float64, n)
	var k int
	for k = 0; k < n; k++ {
		out[k] = 2 - 2*math.Cos(2*math.Pi*float64(k)/float64(n))
	}
	sort.Float64s(out)

	return out
}

// GridSpectrum returns the eigenvalues of Grid(rows, cols), ascending.
func GridSpectrum(rows, cols int) []float64 {
	pr, pc := PathSpectrum(rows), PathSpectrum(cols)
	out := make([]float64, 0, rows*cols)
	for _, a := range pr {
		for _, b := range pc {
			out = append(out, a+b)
		}
	}
	sort.Float64s(out)

	return out
}
