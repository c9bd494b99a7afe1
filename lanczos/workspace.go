// Package: laso/lanczos
//
// workspace.go — named storage of one solve.
//
// Contract:
//   • Everything the iteration touches is allocated once per shape and reused
//     by later solves of the same Solver with the same (n, b, maxj, nval).
//   • Rolling blocks P0/P1/P2 are n×b; T is a band of width b+1 with room for
//     maxj columns; S holds nval+1 eigenvectors of T (the extra one feeds the
//     restart block); vec holds permanent vectors first, then good vectors.
//   • Scalar trackers (val, res, tau, otau, ritz, atemp, vtemp) are indexed by
//     candidate; val and res keep one spare slot for the extra Ritz value.

package lanczos

import (
	"github.com/katalvlaran/laso/band"
	"github.com/katalvlaran/laso/block"
	"github.com/katalvlaran/laso/rng"
)

// WorkspaceSize returns the number of float64 elements the classic
// single-array layout needs for an order-n problem with block size b,
// subspace ceiling maxj and nval wanted eigenvalues:
//
//	2·n·b + maxj·(b+nval+2) + 2·b² + 3·nval + max(n·b, maxj·(2b+3) + 2·nval + 6 + (2b+2)(b+1))
//
// The named workspace of this package is within a small constant of it.
func WorkspaceSize(n, b, maxj, nval int) int {
	return 2*n*b + maxj*(b+nval+2) + 2*b*b + 3*nval +
		max(n*b, maxj*(2*b+3)+2*nval+6+(2*b+2)*(b+1))
}

type workspace struct {
	n, nb, maxj, nval int

	p0, p1, p2 *block.Block // previous, current and next Lanczos blocks
	r          *block.Block // b×b factor of the P1 re-orthonormalization
	bet        *block.Block // b×b upper-triangular coupling block
	alp        *band.Matrix // b×b diagonal block, reused for Bet·Betᵀ
	alpVec     *block.Block // b×1 eigenvector scratch for alp
	t          *band.Matrix // projected matrix, width b+1
	s          *block.Block // maxj×(nval+1) eigenvectors of T
	vec        *block.Block // n×nval permanent, then good vectors
	vecR       *block.Block // nval×nval factor when orthonormalizing vec
	norms      []float64    // norms of caller-supplied vectors

	val, res           []float64 // nval+1
	tau, otau          []float64 // nval
	ritz, atemp, vtemp []float64 // nval+1
	valAcc, vecAcc     []float64 // nval, filled by the post-processor
	ind                []int     // nval+1 acceptance marks
	rv                 []float64 // b

	src      *rng.Source
	tSolve   *band.Solver
	alpSolve *band.Solver
}

// newWorkspace allocates every container for the given shape.
// Complexity: O(n·(b+nval) + maxj·(b+nval)).
func newWorkspace(n, nb, maxj, nval int, seed int32) (*workspace, error) {
	var (
		ws  workspace
		err error
	)
	ws.n, ws.nb, ws.maxj, ws.nval = n, nb, maxj, nval
	ws.src = rng.New(seed)

	if ws.p0, err = block.New(n, nb); err != nil {
		return nil, err
	}
	if ws.p1, err = block.New(n, nb); err != nil {
		return nil, err
	}
	if ws.p2, err = block.New(n, nb); err != nil {
		return nil, err
	}
	if ws.r, err = block.New(nb, nb); err != nil {
		return nil, err
	}
	if ws.bet, err = block.New(nb, nb); err != nil {
		return nil, err
	}
	if ws.alp, err = band.New(nb, nb); err != nil {
		return nil, err
	}
	if ws.alpVec, err = block.New(nb, 1); err != nil {
		return nil, err
	}
	if ws.t, err = band.New(maxj, nb+1); err != nil {
		return nil, err
	}
	if ws.s, err = block.New(maxj, nval+1); err != nil {
		return nil, err
	}
	if ws.vec, err = block.New(n, nval); err != nil {
		return nil, err
	}
	if ws.vecR, err = block.New(nval, nval); err != nil {
		return nil, err
	}
	if ws.tSolve, err = band.NewSolver(maxj, nb+1, ws.src); err != nil {
		return nil, err
	}
	if ws.alpSolve, err = band.NewSolver(nb, nb, ws.src); err != nil {
		return nil, err
	}

	ws.norms = make([]float64, nval)
	ws.val = make([]float64, nval+1)
	ws.res = make([]float64, nval+1)
	ws.tau = make([]float64, nval)
	ws.otau = make([]float64, nval)
	ws.ritz = make([]float64, nval+1)
	ws.atemp = make([]float64, nval+1)
	ws.vtemp = make([]float64, nval+1)
	ws.ind = make([]int, nval+1)
	ws.valAcc = make([]float64, nval)
	ws.vecAcc = make([]float64, nval)
	ws.rv = make([]float64, nb)

	return &ws, nil
}

// fits reports whether ws can serve a solve of the given shape.
func (ws *workspace) fits(n, nb, maxj, nval int) bool {
	return ws != nil && ws.n == n && ws.nb == nb && ws.maxj == maxj && ws.nval == nval
}

// reset clears per-solve state and restarts the random stream.
func (ws *workspace) reset(seed int32) {
	ws.src.Reset(seed)
	ws.p0.Zero()
	ws.p1.Zero()
	ws.p2.Zero()
	ws.bet.Zero()
	ws.alp.Zero()
	ws.t.Zero()
	ws.s.Zero()
	ws.vec.Zero()
	clear(ws.val)
	clear(ws.res)
	clear(ws.tau)
	clear(ws.otau)
	clear(ws.valAcc)
	clear(ws.vecAcc)
}

// vecs returns a view of the first k vectors of vec.
func (ws *workspace) vecs(k int) *block.Block {
	v, _ := ws.vec.Columns(0, k) // 0 < k ≤ nval by construction

	return v
}

// square returns the k×k leading view of vecR.
func (ws *workspace) square(k int) *block.Block {
	c, _ := ws.vecR.Columns(0, k)
	r, _ := c.TopRows(k)

	return r
}

// ritzVectors returns the first k eigenvectors of T restricted to its order j.
func (ws *workspace) ritzVectors(j, k int) *block.Block {
	top, _ := ws.s.TopRows(j)
	v, _ := top.Columns(0, k)

	return v
}
