// Package band implements symmetric band matrices and a partial eigensolver
// for them.
//
// A Matrix of width w stores the diagonal and w−1 sub-diagonals column by
// column: entry (d, k) holds A[k+d][k]. The upper triangle is implied by
// symmetry. The projected Lanczos matrix T of block size b is a band matrix of
// width b+1; the Rayleigh–Ritz matrix of the post-processor is a full band
// (width equal to its order).
//
// The eigensolver (Solver.Eigen) combines Rayleigh-quotient inverse iteration
// with Sturm-sequence bisection: every shifted factorization also returns the
// exact number of eigenvalues below the shift, which tightens per-eigenvalue
// brackets seeded from Gershgorin bounds.
package band

import (
	"fmt"
	"math"
)

// Matrix is a symmetric band matrix with column storage of its lower band.
// The order may grow up to the allocated capacity without reallocation.
type Matrix struct {
	n        int       // current order
	width    int       // diagonal + (width-1) sub-diagonals
	capacity int       // allocated columns
	data     []float64 // data[k*width+d] = A[k+d][k]
}

// New allocates a zero band matrix of the given width able to hold up to
// capacity columns. The initial order equals capacity.
// Complexity: O(capacity*width).
func New(capacity, width int) (*Matrix, error) {
	if capacity <= 0 || width <= 0 {
		return nil, fmt.Errorf("band.New(%d,%d): %w", capacity, width, ErrBadShape)
	}

	return &Matrix{n: capacity, width: width, capacity: capacity, data: make([]float64, capacity*width)}, nil
}

// Order returns the current order n.
func (m *Matrix) Order() int { return m.n }

// Width returns the band width (diagonal included).
func (m *Matrix) Width() int { return m.width }

// Capacity returns the largest order the storage can hold.
func (m *Matrix) Capacity() int { return m.capacity }

// SetOrder changes the logical order; entries are kept.
func (m *Matrix) SetOrder(n int) error {
	if n <= 0 || n > m.capacity {
		return fmt.Errorf("band.SetOrder(%d) with capacity %d: %w", n, m.capacity, ErrOutOfRange)
	}
	m.n = n

	return nil
}

// At returns A[k+d][k]. Indices are not checked beyond slice bounds.
func (m *Matrix) At(d, k int) float64 { return m.data[k*m.width+d] }

// Set assigns A[k+d][k] (and, implicitly, A[k][k+d]).
func (m *Matrix) Set(d, k int, v float64) { m.data[k*m.width+d] = v }

// Negate flips the sign of every stored entry of columns [from, to).
func (m *Matrix) Negate(from, to int) {
	var i int
	for i = from * m.width; i < to*m.width; i++ {
		m.data[i] = -m.data[i]
	}
}

// Zero clears the whole allocated storage.
func (m *Matrix) Zero() { clear(m.data) }

// MulVec sets y = A·x over the current order.
// Complexity: O(n*width).
func (m *Matrix) MulVec(y, x []float64) {
	var (
		n, k, i, lim int
		a            float64
	)
	n = m.n
	clear(y[:n])
	for k = 0; k < n; k++ {
		y[k] += m.At(0, k) * x[k]
		lim = min(n-k, m.width)
		for i = 1; i < lim; i++ {
			a = m.At(i, k)
			y[k+i] += a * x[k]
			y[k] += a * x[k+i]
		}
	}
}

// Gershgorin widens [lo, hi] with the Gershgorin discs of columns from..n-1
// and returns the new bounds. Entries stored beyond the current order (the
// coupling to the next Lanczos block) are included, so the bound stays valid
// as the matrix grows.
// Complexity: O((n-from)*width).
func (m *Matrix) Gershgorin(from int, lo, hi float64) (float64, float64) {
	var (
		k, i, l int
		radius  float64
	)
	for k = max(from, 0); k < m.n; k++ {
		radius = 0
		for i = 1; i < m.width; i++ {
			radius += math.Abs(m.At(i, k))
		}
		l = min(k, m.width-1)
		for i = 1; i <= l; i++ {
			radius += math.Abs(m.At(i, k-i))
		}
		lo = min(lo, m.At(0, k)-radius)
		hi = max(hi, m.At(0, k)+radius)
	}

	return lo, hi
}
