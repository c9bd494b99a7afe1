package lanczos

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/laso/block"
	"gonum.org/v1/gonum/floats"
)

// Candidate marks while classifying Ritz pairs; SortPairs moves −1 first.
const (
	markKeep    = -1.0 // accepted or good
	markRestart = 1.0  // feeds the next starting block
)

// analyze computes the leftmost Ritz pairs of T and classifies them.
// Complexity: O(ntheta·s·j·b²) for the band solver plus O(ntheta·b²).
func (it *iteration) analyze() (iterState, error) {
	ws := it.ws
	var (
		i       int
		closing bool
		err     error
	)
	it.extra = false
	// A forced analysis (T full or budget spent) examines every Ritz value T
	// can offer, so the acceptance test runs once T holds more than nleft.
	closing = it.full() || (it.nop >= it.maxop && it.nleft != 0)

	// Stage 1: Ritz values, residual norms and orthogonality coefficients.
	// A permanent value that a new Ritz value undercuts is given up and the
	// analysis repeats with one more value left to find.
	for {
		it.ntheta = min(it.j/2, it.nleft+1)
		if closing {
			it.ntheta = min(it.j, it.nleft+1)
		}
		if err = ws.t.SetOrder(it.j); err != nil {
			return stateDone, err
		}
		if err = ws.tSolve.Eigen(ws.t, 0, it.ntheta, ws.ritz, ws.ritzVectors(it.j, it.ntheta), it.eps, it.tmin, it.tmax); err != nil {
			return stateDone, fmt.Errorf("lanczos: eigenpairs of T (order %d): %w", it.j, err)
		}
		it.residuals()

		// A check run ends once no Ritz value can hide below the accepted ones.
		if it.nleft == 0 && it.j >= 6*it.nb && ws.ritz[0]-ws.atemp[0] > ws.val[it.nperm-1]-it.tola {
			return stateFinish, nil
		}
		if it.ntheta <= it.nleft {
			return it.classifyGood(), nil
		}
		if it.nperm == 0 || ws.ritz[it.nleft] >= ws.val[it.nperm-1] {
			break
		}
		it.logger.Debug("lanczos dropped permanent pair", "value", ws.val[it.nperm-1])
		it.nperm--
		it.ngood = 0
		it.number = it.nperm
		it.nleft++
	}

	// Stage 2: the first unwanted Ritz value bounds the boundary estimate.
	it.delta = min(it.delta, ws.ritz[it.nleft])
	it.enough = true
	if it.nleft == 0 {
		return it.resume(), nil
	}
	it.ntheta = it.nleft
	it.extra = true
	ws.vtemp[it.ntheta] = markRestart

	// Stage 3: acceptance test.
	it.delta = min(it.delta, it.anorm)
	it.pnorm = max(it.rnorm, -ws.ritz[0], it.delta)
	it.tola = it.utol * it.pnorm
	it.nstart = 0
	var gap, crit float64
	for i = 0; i < it.ntheta; i++ {
		crit = ws.atemp[i]
		gap = it.delta - ws.ritz[i]
		if gap > 0 {
			crit = min(ws.atemp[i]*ws.atemp[i]/gap, crit)
		}
		if crit <= it.tola {
			ws.ind[i] = -1
			continue
		}
		it.enough = false
		if !it.test {
			return it.classifyGood(), nil
		}
		ws.ind[i] = 1
		it.nstart++
	}
	for i = 0; i < it.ntheta; i++ {
		ws.vtemp[i] = float64(ws.ind[i])
	}

	return stateRitz, nil
}

// residuals fills atemp with ‖Bet·s_i‖ over the last block of each Ritz
// vector and vtemp with its smallest entry in magnitude.
func (it *iteration) residuals() {
	ws := it.ws
	var (
		i, k, l, nb int
		si          []float64
		sum         float64
	)
	nb = it.nb
	for i = 0; i < it.ntheta; i++ {
		si = ws.s.Col(i)[it.j-nb : it.j]
		for k = 0; k < nb; k++ {
			sum = 0
			for l = k; l < nb; l++ {
				sum += si[l] * ws.bet.Col(l)[k]
			}
			ws.rv[k] = sum
		}
		ws.vtemp[i] = math.Abs(ws.rv[0])
		for k = 1; k < nb; k++ {
			ws.vtemp[i] = min(ws.vtemp[i], math.Abs(ws.rv[k]))
		}
		ws.atemp[i] = floats.Norm(ws.rv, 2)
	}
}

// classifyGood marks Ritz vectors whose orthogonality coefficient is below
// tolg as good. It continues the run unless more good vectors turned up.
func (it *iteration) classifyGood() iterState {
	ws := it.ws
	var i, ng int
	for i = 0; i < it.ntheta; i++ {
		if ws.vtemp[i] > it.tolg {
			ws.vtemp[i] = markRestart
		} else {
			ng++
			ws.vtemp[i] = markKeep
		}
	}
	if ng <= it.ngood {
		return it.resume()
	}
	it.nstart = it.ntheta - ng

	return stateRitz
}

// ritzVectors aligns the kept Ritz pairs in front, builds the new good or
// permanent vectors and, when restarting, the next starting block, all by
// replaying the stored Lanczos basis.
func (it *iteration) ritzVectors(ctx context.Context) (iterState, error) {
	ws := it.ws
	var (
		i, k, l, r, m, rounds int
		temp                  float64
		sv                    *block.Block
		err                   error
	)
	it.test = it.test && !it.enough
	it.ngood = it.ntheta - it.nstart
	if it.extra {
		it.nstart++
		it.ntheta++
	}
	copy(ws.val[it.nperm:it.nperm+it.ntheta], ws.ritz[:it.ntheta])

	// Stage 1: kept pairs first, restart candidates after, each run in order.
	sv = ws.ritzVectors(it.j, it.ntheta)
	if it.nstart != 0 {
		if it.nstart != it.ntheta {
			if err = block.SortPairs(ws.vtemp[:it.ntheta], ws.atemp[:it.ntheta], ws.val[it.nperm:it.nperm+it.ntheta], sv); err != nil {
				return stateDone, err
			}
		}
		if !it.test {
			it.nstart = 0
		}
	}

	// Stage 2: fold the restart candidates into at most nb columns, weighting
	// each by min residual / its residual.
	if it.nstart != 0 {
		temp = ws.atemp[it.ngood]
		for i = it.ngood; i < it.ngood+it.nstart; i++ {
			temp = min(temp, ws.atemp[i])
		}
		for i = it.ngood; i < it.ngood+min(it.nstart, it.nb); i++ {
			floats.Scale(temp/ws.atemp[i], sv.Col(i))
		}
		rounds = (it.nstart - 1) / it.nb
		l = it.ngood + it.nb
	fold:
		for r = 0; r < rounds; r++ {
			for k = 0; k < it.nb; k++ {
				if l >= it.ntheta {
					break fold
				}
				floats.AddScaled(sv.Col(it.ngood+k), temp/ws.atemp[l], sv.Col(l))
				l++
			}
		}
		it.nstart = min(it.nstart, it.nb)
	}

	// Stage 3: residuals of the new permanent vectors.
	if it.test || it.enough {
		for i = 0; i < it.ngood; i++ {
			ws.res[it.nperm+i] = ws.atemp[i]
		}
	}

	// Stage 4: replay the basis: Y = Q·S for good vectors and the restart block.
	it.number = it.nperm + it.ngood
	if it.test || it.enough {
		ws.p1.Zero()
	}
	for i = it.nperm; i < it.number; i++ {
		clear(ws.vec.Col(i))
	}
	if it.nstart+it.ngood != 0 {
		for m = 0; m < it.j; m += it.nb {
			if err = it.store.Retrieve(ctx, m, ws.p2); err != nil {
				return stateDone, fmt.Errorf("lanczos: retrieve block at %d: %w", m, err)
			}
			for k = 0; k < it.nb; k++ {
				for l = 0; l < it.nstart; l++ {
					floats.AddScaled(ws.p1.Col(l), ws.s.Col(it.ngood + l)[m+k], ws.p2.Col(k))
				}
				for l = 0; l < it.ngood; l++ {
					floats.AddScaled(ws.vec.Col(it.nperm+l), ws.s.Col(l)[m+k], ws.p2.Col(k))
				}
			}
		}
	}
	if it.test || it.enough {
		return stateAccept, nil
	}

	// Stage 5: good vectors join the iteration without a restart.
	var nrm float64
	for i = it.nperm; i < it.number; i++ {
		nrm = floats.Norm(ws.vec.Col(i), 2)
		if nrm != 0 {
			floats.Scale(1/nrm, ws.vec.Col(i))
		}
		ws.tau[i] = 1
		ws.otau[i] = 1
	}
	// Realign S by eigenvalue for the next warm start.
	copy(ws.vtemp[:it.ntheta], ws.val[it.nperm:it.nperm+it.ntheta])
	if err = block.SortPairs(ws.vtemp[:it.ntheta], ws.atemp[:it.ntheta], nil, sv); err != nil {
		return stateDone, err
	}
	it.logger.Debug("lanczos good vectors", "count", it.ngood, "j", it.j)

	return it.resume(), nil
}

// full reports whether T has no room for another block.
func (it *iteration) full() bool { return it.maxj-it.j < it.nb }

// resume continues the current run when T can still grow. Otherwise a
// check run is over and any other run starts again from P1.
func (it *iteration) resume() iterState {
	if !it.full() {
		return stateStep
	}
	if it.nleft == 0 {
		return stateFinish
	}

	return stateRestart
}
