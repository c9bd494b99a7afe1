// SPDX-License-Identifier: MIT
// Package: laso/band
//
// factor.go — shifted band factorization with multiple pivoting.
//
// Contract:
//   • Factors (A − σI) column by column in a sliding (2w−1)×w window, choosing
//     between the pending row and the new row by magnitude (Gupta's multiple
//     pivoting). Each row interchange flips the sign bookkeeping according to
//     the signs of the two candidates, so the product of pivot signs still
//     yields the inertia of (A − σI).
//   • Returns the exact number of eigenvalues of A strictly below σ.
//   • Applies the same eliminations to the right-hand sides and back-solves
//     them in place, so each rhs becomes (A − σI)⁻¹·rhs.
//   • Pivots with |p| ≤ atol are clamped to ±atol (sign of p, +atol for zero).
//
// Complexity:
//   • Time: O(n·w²) for the factorization plus O(n·w) per right-hand side.
//   • Space: O(n·w) for the stored factor, reused across calls.

package band

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// factorizer owns the window and factor storage of one Solver.
type factorizer struct {
	width int       // band width w
	ld    int       // window height 2w−1
	win   []float64 // ld×w working window, column-major
	fac   []float64 // ld×capacity stored factor columns
}

func newFactorizer(capacity, width int) factorizer {
	ld := 2*width - 1

	return factorizer{
		width: width,
		ld:    ld,
		win:   make([]float64, ld*width),
		fac:   make([]float64, ld*capacity),
	}
}

// run factors (A − sigma·I), solves for every rhs in place and returns the
// number of eigenvalues below sigma.
func (f *factorizer) run(a *Matrix, sigma float64, rhs [][]float64, atol float64) int {
	var (
		n, w, nb1, ld int
		k, i, l, m    int
		lpm, count    int
		last, col     []float64
		piv           float64
	)
	n, w, ld = a.n, f.width, f.ld
	nb1 = w - 1
	clear(f.win)

	for k = 0; k < n; k++ {
		// Stage 1: load column k of (A − σI) into the last window column.
		last = f.win[nb1*ld : w*ld]
		clear(last)
		last[nb1] = a.At(0, k) - sigma
		m = min(k+1, w) - 1
		for i = 1; i <= m; i++ {
			last[nb1-i] = a.At(i, k-i)
		}
		m = min(n-1-k, nb1)
		for i = 1; i <= m; i++ {
			last[nb1+i] = a.At(i, k)
		}

		// Stage 2: eliminate against the pending rows, swapping when the new
		// row dominates.
		lpm = 1
		for i = 0; i < nb1; i++ {
			if last[i] == 0 {
				continue
			}
			l = k - nb1 + i // global row of pending pivot i
			col = f.win[i*ld : (i+1)*ld]
			if math.Abs(col[i]) < math.Abs(last[i]) {
				if (last[i] < 0 && col[i] < 0) || (last[i] > 0 && col[i] >= 0) {
					lpm = -lpm
				}
				swapTail(col[i:], last[i:])
				for _, x := range rhs {
					x[l], x[k] = x[k], x[l]
				}
			}
			piv = -last[i] / col[i]
			floats.AddScaled(last[i+1:], piv, col[i+1:])
			for _, x := range rhs {
				x[k] += piv * x[l]
			}
		}

		// Stage 3: Sturm sequence count.
		if last[nb1] < 0 {
			lpm = -lpm
		}
		if lpm < 0 {
			count++
		}
		if k == n-1 {
			break
		}

		// Stage 4: retire the first window column and shift the window.
		if k >= nb1 {
			copy(f.fac[(k-nb1)*ld:(k-nb1+1)*ld], f.win[:ld])
		}
		for i = 0; i < nb1; i++ {
			col = f.win[i*ld : (i+1)*ld]
			copy(col[i:ld-1], f.win[(i+1)*ld+i+1:(i+2)*ld])
			col[ld-1] = 0
		}
	}

	// Stage 5: retire the remaining window columns.
	for i = 0; i < w; i++ {
		l = n - w + i
		if l < 0 {
			continue
		}
		copy(f.fac[l*ld:l*ld+w-i], f.win[i*ld+i:i*ld+w])
	}

	if len(rhs) == 0 {
		return count
	}

	// Stage 6: back substitution through the stored upper factor.
	var (
		j   int
		uk  []float64
		xk  float64
		top int
	)
	for k = n - 1; k >= 0; k-- {
		uk = f.fac[k*ld : (k+1)*ld]
		if math.Abs(uk[0]) <= atol {
			if uk[0] >= 0 {
				uk[0] = atol
			} else {
				uk[0] = -atol
			}
		}
		top = min(ld, k+1) - 1
		for _, x := range rhs {
			x[k] /= uk[0]
			xk = x[k]
			for j = 1; j <= top; j++ {
				x[k-j] -= f.fac[(k-j)*ld+j] * xk
			}
		}
	}

	return count
}

// swapTail exchanges two equally long slices element-wise.
func swapTail(a, b []float64) {
	var i int
	for i = range a {
		a[i], b[i] = b[i], a[i]
	}
}
