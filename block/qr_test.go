package block_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/laso/block"
	"github.com/katalvlaran/laso/rng"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const qrTol = 1e-12 // round-trip tolerance for O(1) entries

// randomBlock fills an n×m block from a fixed seed.
func randomBlock(t *testing.T, n, m int, seed int32) *block.Block {
	t.Helper()
	b, err := block.New(n, m)
	require.NoError(t, err)
	src := rng.New(seed)

	var j int
	for j = 0; j < m; j++ {
		src.Fill(b.Col(j))
	}

	return b
}

// toDense copies a block into a gonum matrix for reference arithmetic.
func toDense(b *block.Block) *mat.Dense {
	d := mat.NewDense(b.Rows(), b.Cols(), nil)

	var i, j int
	for j = 0; j < b.Cols(); j++ {
		for i = 0; i < b.Rows(); i++ {
			d.Set(i, j, b.Col(j)[i])
		}
	}

	return d
}

// TestQRRoundTrip checks Z = Q·R, QᵗQ = I and the triangular shape of R.
func TestQRRoundTrip(t *testing.T) {
	z := randomBlock(t, 40, 6, 3)
	orig := toDense(z)
	r, err := block.New(6, 6)
	require.NoError(t, err)

	require.NoError(t, block.QR(z, r))

	var qr, qtq mat.Dense
	q := toDense(z)
	qr.Mul(q, toDense(r))
	require.True(t, mat.EqualApprox(&qr, orig, qrTol), "Q·R differs from Z")

	qtq.Mul(q.T(), q)
	require.True(t, mat.EqualApprox(&qtq, eye(6), qrTol), "QᵗQ is not the identity")

	var i, j int
	for j = 0; j < 6; j++ {
		for i = j + 1; i < 6; i++ {
			require.Equal(t, 0.0, r.Col(j)[i], "R(%d,%d)", i, j)
		}
	}
}

// TestQRSquare covers the n == m boundary.
func TestQRSquare(t *testing.T) {
	z := randomBlock(t, 4, 4, 11)
	orig := toDense(z)
	r, _ := block.New(4, 4)
	require.NoError(t, block.QR(z, r))

	var qr mat.Dense
	qr.Mul(toDense(z), toDense(r))
	require.True(t, mat.EqualApprox(&qr, orig, qrTol))
}

// TestQRZeroColumn verifies the rank-deficient path: R_ii = 0 and the
// remaining columns stay orthonormal.
func TestQRZeroColumn(t *testing.T) {
	z := randomBlock(t, 10, 3, 5)
	clear(z.Col(1))
	r, _ := block.New(3, 3)
	require.NoError(t, block.QR(z, r))

	require.Equal(t, 0.0, math.Abs(r.Col(1)[1]))

	var i, j int
	for i = 0; i < 3; i++ {
		require.InDelta(t, 1.0, floats.Norm(z.Col(i), 2), qrTol)
		for j = i + 1; j < 3; j++ {
			require.InDelta(t, 0.0, floats.Dot(z.Col(i), z.Col(j)), qrTol)
		}
	}
}

// TestQRShapeErrors covers the two dimension checks.
func TestQRShapeErrors(t *testing.T) {
	z := randomBlock(t, 5, 2, 1)
	r, _ := block.New(3, 3)
	require.ErrorIs(t, block.QR(z, r), block.ErrDimensionMismatch)

	wide := randomBlock(t, 2, 3, 1)
	require.ErrorIs(t, block.QR(wide, r), block.ErrDimensionMismatch)
}

func eye(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)

	var i int
	for i = 0; i < n; i++ {
		d.Set(i, i, 1)
	}

	return d
}
