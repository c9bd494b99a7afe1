// Package: laso/lanczos
//
// postprocess.go — final Rayleigh–Ritz and accuracy estimates.
//
// Contract:
//   • Runs once per solve when nperm > 0, after the iteration.
//   • When the cluster test asked for it (raritz), projects A onto the
//     permanent vectors, H = ±QᵗAQ, diagonalizes H with the band solver
//     (width = nperm) and replaces the vectors by Y = Q·S.
//   • Always recomputes Rayleigh quotients and true residuals with the
//     un-negated operator; on return ws.val holds true eigenvalues.
//   • P0 and P2 serve as scratch; P1 (the restart block) is left untouched.
//
// Complexity:
//   • Operator calls: ⌈nperm/b⌉, doubled when raritz is set.
//   • Time: O(n·nperm²) for the projections and rebuild.

package lanczos

import (
	"context"
	"fmt"

	"github.com/katalvlaran/laso/band"
	"github.com/katalvlaran/laso/block"
	"gonum.org/v1/gonum/floats"
)

// blockWidth returns the width of the post-processing block starting at f:
// the first block absorbs nperm mod b so that the others are full.
func (it *iteration) blockWidth(f int) int {
	if f == 0 && it.nperm%it.nb != 0 {
		return it.nperm % it.nb
	}

	return it.nb
}

// postprocess refines the permanent pairs. See the file comment.
func (it *iteration) postprocess(ctx context.Context) error {
	if it.raritz {
		if err := it.rayleighRitz(ctx); err != nil {
			return err
		}
	}

	ws := it.ws
	var (
		f, w, c           int
		value, resid, gap float64
		boundary          float64
		p, q              *block.Block
		pc, qc            []float64
		err               error
	)
	boundary = it.boundary()

	for f = 0; f < it.nperm; f += w {
		w = it.blockWidth(f)
		p, _ = ws.vec.Columns(f, f+w)
		q, _ = ws.p2.Columns(0, w)
		if err = it.op.Apply(ctx, q, p); err != nil {
			return fmt.Errorf("lanczos: operator in post-processing at %d: %w", f, err)
		}
		it.nop++
		it.m.operatorCall()

		for c = 0; c < w; c++ {
			pc, qc = p.Col(c), q.Col(c)
			value = floats.Dot(pc, qc)
			floats.AddScaled(qc, -value, pc)
			resid = floats.Norm(qc, 2)

			gap = boundary - value
			if !it.small {
				gap = -gap
			}
			ws.val[f+c] = value
			ws.res[f+c] = resid
			ws.vecAcc[f+c] = 0
			if gap > 0 {
				ws.vecAcc[f+c] = resid / gap
			}
			ws.valAcc[f+c] = ws.vecAcc[f+c] * resid
		}
	}

	return nil
}

// boundary returns delta in the frame of the true operator.
func (it *iteration) boundary() float64 {
	if it.small {
		return it.delta
	}

	return -it.delta
}

// rayleighRitz replaces the permanent vectors by the Ritz vectors of A on
// their span. Stored blocks are positions 0..nperm−1 of the vector store; the
// Krylov basis is no longer needed at this point.
func (it *iteration) rayleighRitz(ctx context.Context) error {
	ws := it.ws
	var (
		f, w, c, k, l    int
		sign, hmin, hmax float64
		h                *band.Matrix
		hs               *band.Solver
		hv, p, q         *block.Block
		err              error
	)
	if h, err = band.New(it.nperm, it.nperm); err != nil {
		return err
	}
	if hs, err = band.NewSolver(it.nperm, it.nperm, ws.src); err != nil {
		return err
	}
	if hv, err = block.New(it.nperm, it.nperm); err != nil {
		return err
	}
	sign = 1
	if !it.small {
		sign = -1
	}

	// Stage 1: H = ±QᵗAQ, one block of Q at a time.
	for f = 0; f < it.nperm; f += w {
		w = it.blockWidth(f)
		p, _ = ws.p0.Columns(0, w)
		q, _ = ws.p2.Columns(0, w)
		for c = 0; c < w; c++ {
			copy(p.Col(c), ws.vec.Col(f+c))
		}
		if err = it.store.Store(ctx, f, p); err != nil {
			return fmt.Errorf("lanczos: store permanent block at %d: %w", f, err)
		}
		if err = it.op.Apply(ctx, q, p); err != nil {
			return fmt.Errorf("lanczos: operator in Rayleigh-Ritz at %d: %w", f, err)
		}
		it.nop++
		it.m.operatorCall()
		for c = 0; c < w; c++ {
			l = f + c
			for k = l; k < it.nperm; k++ {
				h.Set(k-l, l, sign*floats.Dot(ws.vec.Col(k), q.Col(c)))
			}
		}
	}

	// Stage 2: eigenpairs of H.
	hmin, hmax = h.Gershgorin(0, h.At(0, 0), h.At(0, 0))
	if err = hs.Eigen(h, 0, it.nperm, ws.val[:it.nperm], hv, it.eps, hmin, hmax); err != nil {
		return fmt.Errorf("lanczos: eigenpairs of the projected matrix: %w", err)
	}

	// Stage 3: Y = Q·S from the stored copy of Q.
	ws.vecs(it.nperm).Zero()
	for f = 0; f < it.nperm; f += w {
		w = it.blockWidth(f)
		p, _ = ws.p0.Columns(0, w)
		if err = it.store.Retrieve(ctx, f, p); err != nil {
			return fmt.Errorf("lanczos: retrieve permanent block at %d: %w", f, err)
		}
		for k = 0; k < it.nperm; k++ {
			for c = 0; c < w; c++ {
				floats.AddScaled(ws.vec.Col(k), hv.Col(k)[f+c], p.Col(c))
			}
		}
	}
	it.logger.Debug("lanczos rayleigh-ritz", "nperm", it.nperm, "hmin", hmin, "hmax", hmax)

	return nil
}
