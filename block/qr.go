// SPDX-License-Identifier: MIT
// Package: laso/block
//
// qr.go — in-place Householder QR of a tall block.
//
// Contract:
//   • z is n×m with n ≥ m; r is m×m.
//   • On return z holds Q (orthonormal columns) and r holds the upper
//     triangular R with z_in = Q·R. Entries of r below the diagonal are zero.
//   • A zero column yields a zero reflection (tau = 0); its Q column becomes the
//     unit vector e_i and R_ii = 0. Callers that need a full-rank Q replace zero
//     columns with random vectors before factoring.
//
// Complexity:
//   • Time: O(n·m²) for the reduction plus O(n·m²) for the reaccumulation.
//   • Space: O(1) extra; the reflections live in the lower part of z.

package block

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

const methodQR = "QR"

// QR factors z in place. See the file comment for the contract.
func QR(z, r *Block) error {
	var (
		n, m int // shape of z
	)
	n, m = z.rows, z.cols
	if r.rows != m || r.cols != m {
		return fmt.Errorf("%s: R is %dx%d, want %dx%d: %w", methodQR, r.rows, r.cols, m, m, ErrDimensionMismatch)
	}
	if n < m {
		return fmt.Errorf("%s: %d vectors of length %d: %w", methodQR, m, n, ErrDimensionMismatch)
	}
	r.Zero()

	// Stage 1: reduce z to triangular form, one reflection per column.
	var (
		i, k             int
		sigma, tau, temp float64
		zi, zk           []float64
		rd               []float64
	)
	for i = 0; i < m; i++ {
		zi = z.Col(i)[i:] // active part of column i
		sigma = floats.Norm(zi, 2)
		if zi[0] < 0 {
			sigma = -sigma // sign(norm, z_ii), positive zero keeps +
		}
		rd = r.Col(i)
		rd[i] = -sigma
		zi[0] += sigma
		tau = sigma * zi[0]

		for k = i + 1; k < m; k++ {
			zk = z.Col(k)[i:]
			if tau != 0 {
				temp = -floats.Dot(zi, zk) / tau
				floats.AddScaled(zk, temp, zi)
			}
			r.Col(k)[i] = zk[0]
			zk[0] = 0
		}
	}

	// Stage 2: accumulate the reflections in reverse order to materialize Q.
	for i = m - 1; i >= 0; i-- {
		zi = z.Col(i)[i:]
		sigma = -r.Col(i)[i]
		tau = zi[0] * sigma
		if tau != 0 {
			for k = i + 1; k < m; k++ {
				zk = z.Col(k)[i:]
				temp = -floats.Dot(zi, zk) / tau
				floats.AddScaled(zk, temp, zi)
			}
			floats.Scale(-1/sigma, zi)
		}
		zi[0]++
	}

	return nil
}
