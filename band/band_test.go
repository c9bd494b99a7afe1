// Package band_test verifies the band container and eigensolver against
// closed-form spectra and gonum's dense symmetric eigendecomposition.
package band_test

import (
	"math"
	"sort"
	"testing"

	"github.com/katalvlaran/laso/band"
	"github.com/katalvlaran/laso/block"
	"github.com/katalvlaran/laso/rng"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	eps    = 0x1p-53 // unit roundoff found by the halving loop
	valTol = 1e-10   // eigenvalue agreement
	vecTol = 1e-8    // residual and orthogonality of eigenvectors
)

// tridiag builds the order-n matrix tridiag(-1, 2, -1) with width 2.
func tridiag(t *testing.T, n int) *band.Matrix {
	t.Helper()
	a, err := band.New(n, 2)
	require.NoError(t, err)

	var k int
	for k = 0; k < n; k++ {
		a.Set(0, k, 2)
		if k+1 < n {
			a.Set(1, k, -1)
		}
	}

	return a
}

// randomBand builds a random symmetric band matrix and its dense twin.
func randomBand(t *testing.T, n, w int, seed int32) (*band.Matrix, *mat.SymDense) {
	t.Helper()
	a, err := band.New(n, w)
	require.NoError(t, err)
	d := mat.NewSymDense(n, nil)
	src := rng.New(seed)

	var k, i int
	var v float64
	for k = 0; k < n; k++ {
		for i = 0; i < w && k+i < n; i++ {
			v = src.Uniform()*2 - 1
			if i == 0 {
				v += float64(k) * 0.5 // spread the diagonal to separate eigenvalues
			}
			a.Set(i, k, v)
			d.SetSym(k+i, k, v)
		}
	}

	return a, d
}

func bounds(a *band.Matrix) (float64, float64) {
	return a.Gershgorin(0, math.Inf(1), math.Inf(-1))
}

// TestEigenFourByFourClosedForm solves tridiag(-1,2,-1) of order 4, whose
// eigenvalues are 2 − 2cos(kπ/5).
func TestEigenFourByFourClosedForm(t *testing.T) {
	a := tridiag(t, 4)
	s, err := band.NewSolver(4, 2, rng.New(0))
	require.NoError(t, err)

	vals := make([]float64, 4)
	vecs, _ := block.New(4, 4)
	tmin, tmax := bounds(a)
	require.NoError(t, s.Eigen(a, 0, 4, vals, vecs, eps, tmin, tmax))

	var k int
	for k = 1; k <= 4; k++ {
		require.InDelta(t, 2-2*math.Cos(float64(k)*math.Pi/5), vals[k-1], valTol, "eigenvalue %d", k)
	}
	checkPairs(t, a, vals, vecs)
}

// TestEigenSubRange asks only for the middle two eigenvalues.
func TestEigenSubRange(t *testing.T) {
	a := tridiag(t, 9)
	s, err := band.NewSolver(9, 2, rng.New(3))
	require.NoError(t, err)

	vals := make([]float64, 2)
	vecs, _ := block.New(9, 2)
	tmin, tmax := bounds(a)
	require.NoError(t, s.Eigen(a, 3, 5, vals, vecs, eps, tmin, tmax))

	require.InDelta(t, 2-2*math.Cos(4*math.Pi/10), vals[0], valTol)
	require.InDelta(t, 2-2*math.Cos(5*math.Pi/10), vals[1], valTol)
	checkPairs(t, a, vals, vecs)
}

// TestEigenAgainstDense compares a wider random band with gonum's EigenSym.
func TestEigenAgainstDense(t *testing.T) {
	const n, w = 30, 4
	a, d := randomBand(t, n, w, 17)

	var es mat.EigenSym
	require.True(t, es.Factorize(d, false))
	want := es.Values(nil)
	sort.Float64s(want)

	s, err := band.NewSolver(n, w, rng.New(1))
	require.NoError(t, err)
	vals := make([]float64, 6)
	vecs, _ := block.New(n, 6)
	tmin, tmax := bounds(a)
	require.NoError(t, s.Eigen(a, 0, 6, vals, vecs, eps, tmin, tmax))

	var i int
	for i = 0; i < 6; i++ {
		require.InDelta(t, want[i], vals[i], valTol, "eigenvalue %d", i)
	}
	checkPairs(t, a, vals, vecs)
}

// TestEigenFullBand covers width == order, the post-processing layout.
func TestEigenFullBand(t *testing.T) {
	const n = 7
	a, d := randomBand(t, n, n, 29)

	var es mat.EigenSym
	require.True(t, es.Factorize(d, false))
	want := es.Values(nil)
	sort.Float64s(want)

	s, err := band.NewSolver(n, n, rng.New(2))
	require.NoError(t, err)
	vals := make([]float64, n)
	vecs, _ := block.New(n, n)
	tmin, tmax := bounds(a)
	require.NoError(t, s.Eigen(a, 0, n, vals, vecs, eps, tmin, tmax))

	require.InDeltaSlice(t, want, vals, valTol)
	checkPairs(t, a, vals, vecs)
}

// TestEigenWarmStartOnGrowingMatrix reuses eigenvectors as the order grows,
// which is how the Lanczos iteration calls the solver.
func TestEigenWarmStartOnGrowingMatrix(t *testing.T) {
	a := tridiag(t, 20)
	s, err := band.NewSolver(20, 2, rng.New(5))
	require.NoError(t, err)
	vecs, _ := block.New(20, 3)
	vals := make([]float64, 3)

	var n int
	for n = 6; n <= 20; n += 2 {
		require.NoError(t, a.SetOrder(n))
		tmin, tmax := bounds(a)
		view, _ := vecs.TopRows(n)
		require.NoError(t, s.Eigen(a, 0, 3, vals, view, eps, tmin, tmax))
		require.InDelta(t, 2-2*math.Cos(math.Pi/float64(n+1)), vals[0], valTol, "order %d", n)
	}
}

// TestInertiaCountsEigenvaluesBelowShift checks the Sturm count at shifts
// between and around the known eigenvalues.
func TestInertiaCountsEigenvaluesBelowShift(t *testing.T) {
	const n, w = 25, 3
	a, d := randomBand(t, n, w, 8)
	var es mat.EigenSym
	require.True(t, es.Factorize(d, false))
	want := es.Values(nil)
	sort.Float64s(want)

	s, err := band.NewSolver(n, w, nil)
	require.NoError(t, err)

	var i int
	var sigma float64
	for i = 0; i <= n; i++ {
		switch {
		case i == 0:
			sigma = want[0] - 1
		case i == n:
			sigma = want[n-1] + 1
		default:
			sigma = (want[i-1] + want[i]) / 2
		}
		got, err := s.Inertia(a, sigma)
		require.NoError(t, err)
		require.Equal(t, i, got, "shift %g", sigma)
	}
}

// TestMulVecAndGershgorin checks the band product against the dense one and
// that the Gershgorin interval contains the spectrum.
func TestMulVecAndGershgorin(t *testing.T) {
	const n, w = 12, 3
	a, d := randomBand(t, n, w, 4)
	x := make([]float64, n)
	rng.New(9).Fill(x)

	y := make([]float64, n)
	a.MulVec(y, x)
	var ref mat.VecDense
	ref.MulVec(d, mat.NewVecDense(n, x))
	require.InDeltaSlice(t, ref.RawVector().Data, y, 1e-13)

	var es mat.EigenSym
	require.True(t, es.Factorize(d, false))
	lo, hi := bounds(a)
	for _, v := range es.Values(nil) {
		require.GreaterOrEqual(t, v, lo)
		require.LessOrEqual(t, v, hi)
	}
}

// TestShapeErrors covers constructor and Eigen validation.
func TestShapeErrors(t *testing.T) {
	_, err := band.New(0, 2)
	require.ErrorIs(t, err, band.ErrBadShape)
	_, err = band.NewSolver(3, 0, nil)
	require.ErrorIs(t, err, band.ErrBadShape)

	a := tridiag(t, 5)
	require.ErrorIs(t, a.SetOrder(6), band.ErrOutOfRange)

	s, _ := band.NewSolver(5, 2, nil)
	vecs, _ := block.New(5, 2)
	err = s.Eigen(a, 4, 6, make([]float64, 2), vecs, eps, 0, 4)
	require.ErrorIs(t, err, band.ErrOutOfRange)
	err = s.Eigen(a, 0, 3, make([]float64, 3), vecs, eps, 0, 4)
	require.ErrorIs(t, err, band.ErrDimensionMismatch)

	wide, _ := band.New(5, 3)
	err = s.Eigen(wide, 0, 1, make([]float64, 1), vecs, eps, 0, 4)
	require.ErrorIs(t, err, band.ErrDimensionMismatch)
}

// TestOrderOne covers the closed form.
func TestOrderOne(t *testing.T) {
	a, _ := band.New(1, 1)
	a.Set(0, 0, -3.5)
	s, _ := band.NewSolver(1, 1, nil)
	vals := make([]float64, 1)
	vecs, _ := block.New(1, 1)
	require.NoError(t, s.Eigen(a, 0, 1, vals, vecs, eps, -3.5, -3.5))
	require.Equal(t, -3.5, vals[0])
	require.Equal(t, 1.0, vecs.Col(0)[0])
}

// checkPairs asserts small residuals and orthonormal eigenvectors.
func checkPairs(t *testing.T, a *band.Matrix, vals []float64, vecs *block.Block) {
	t.Helper()
	n := a.Order()
	ax := make([]float64, n)

	var i, j int
	for i = range vals {
		x := vecs.Col(i)[:n]
		a.MulVec(ax, x)
		floats.AddScaled(ax, -vals[i], x)
		require.Less(t, floats.Norm(ax, 2), vecTol, "residual of pair %d", i)
		require.InDelta(t, 1.0, floats.Norm(x, 2), vecTol)
		for j = 0; j < i; j++ {
			require.InDelta(t, 0.0, floats.Dot(x, vecs.Col(j)[:n]), vecTol)
		}
	}
}
