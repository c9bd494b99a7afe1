// SPDX-License-Identifier: MIT
// Package: laso/lanczos
//
// iterator.go — block Lanczos with selective orthogonalization.
//
// The iteration is an explicit state machine. Each state is one method that
// does its work and returns the next state:
//
//	restart  → step                       new Krylov run from P1
//	step     → step | analyze | abandon | closer
//	abandon  → closer                     orthogonality lost; drop the last block
//	closer   → analyze | done             forced analysis (subspace full, budget spent)
//	analyze  → step | ritz | finish       eigenpairs of T, classification
//	ritz     → step | accept              Ritz vectors, good vectors or restart block
//	accept   → restart | budget | finish | done
//	budget   → finish                     operator budget exhausted
//	finish   → done                       cluster test for the post-processor
//
// All values inside the iteration are of the (possibly negated) operator the
// search runs on: when the largest eigenvalues are wanted, T is negated so
// that the wanted values are always the leftmost ones.

package lanczos

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/katalvlaran/laso/block"
	"gonum.org/v1/gonum/floats"
)

type iterState int

const (
	stateRestart iterState = iota
	stateStep
	stateAbandon
	stateCloser
	stateAnalyze
	stateRitz
	stateAccept
	stateBudget
	stateFinish
	stateDone
)

var stateNames = [...]string{
	"restart", "step", "abandon", "closer", "analyze", "ritz", "accept", "budget", "finish", "done",
}

func (s iterState) String() string { return stateNames[s] }

const (
	deltaInit = 1e31 // boundary estimate before any analysis
	boundInit = 1e30 // Gershgorin bounds of an empty T
)

// iteration carries the scalar state of one solve between states.
type iteration struct {
	op     Operator
	store  VectorStore
	ws     *workspace
	logger *slog.Logger
	m      *Metrics

	n, nb, nval, maxj, maxop int
	digits                   int
	small                    bool

	eps, epsrt, utol float64

	j      int // current order of T, a multiple of nb
	nop    int // operator applications
	nperm  int // permanent pairs
	ngood  int // good Ritz vectors inside the current Krylov space
	nleft  int // nval − nperm
	number int // nperm + ngood
	ntheta int // Ritz values under examination
	nstart int // restart vectors to build
	extra  bool

	anorm, rnorm, pnorm float64
	tmin, tmax          float64
	delta, tola, tolg   float64
	alpmin, alpmax      float64
	betmin, betmax      float64

	test, enough, raritz bool
	status               Status
}

// run drives the state machine to completion.
func (it *iteration) run(ctx context.Context) error {
	var (
		state iterState
		err   error
	)
	it.epsrt = math.Sqrt(it.eps)
	it.utol = max(float64(it.n)*it.eps, math.Pow(10, -float64(it.digits)))
	it.nleft = it.nval - it.nperm
	it.number = it.nperm
	it.delta = deltaInit
	if it.nperm != 0 {
		it.rnorm = max(-it.ws.val[0], it.ws.val[it.nperm-1])
	}
	it.pnorm = it.rnorm

	for state = stateRestart; state != stateDone; {
		switch state {
		case stateRestart:
			state = it.restart()
		case stateStep:
			state, err = it.step(ctx)
		case stateAbandon:
			state = it.abandon()
		case stateCloser:
			state = it.closer()
		case stateAnalyze:
			state, err = it.analyze()
		case stateRitz:
			state, err = it.ritzVectors(ctx)
		case stateAccept:
			state, err = it.accept()
		case stateBudget:
			it.status = StatusBudgetExceeded
			state = stateFinish
		case stateFinish:
			state = it.finish()
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// restart seeds a new Krylov run from P1.
func (it *iteration) restart() iterState {
	ws := it.ws
	var i int
	for i = 0; i < it.nb; i++ {
		if floats.Norm(ws.p1.Col(i), 2) == 0 {
			ws.src.Fill(ws.p1.Col(i))
		}
	}
	for i = 0; i < it.nperm; i++ {
		ws.tau[i] = 1
		ws.otau[i] = 0
	}
	ws.p0.Zero()
	ws.bet.Zero()
	ws.t.Zero()
	ws.s.Zero()

	it.ngood = 0
	it.number = it.nperm
	it.tmin, it.tmax = boundInit, -boundInit
	it.test = true
	it.enough = false
	it.betmax = 0
	it.j = 0

	it.m.restart()
	it.logger.Debug("lanczos restart", "nperm", it.nperm, "nleft", it.nleft, "operator_calls", it.nop)

	return stateStep
}

// step extends the Krylov space by one block and updates every tracker.
func (it *iteration) step(ctx context.Context) (iterState, error) {
	ws := it.ws
	var (
		i, k, m, nb int
		temp, a     float64
		v, pk       []float64
		err         error
	)
	nb = it.nb
	it.j += nb

	// Stage 1: selective orthogonalization against permanent and good vectors.
	for i = 0; i < it.number; i++ {
		if ws.tau[i] < it.epsrt {
			continue
		}
		it.test = true
		ws.tau[i] = 0
		if ws.otau[i] != 0 {
			ws.otau[i] = 1
		}
		it.m.reorthogonalized()
		v = ws.vec.Col(i)
		for k = 0; k < nb; k++ {
			pk = ws.p1.Col(k)
			temp = -floats.Dot(v, pk)
			floats.AddScaled(pk, temp, v)
			if math.Abs(temp*ws.bet.Col(k)[k]) > float64(it.n)*it.epsrt*it.anorm && i >= it.nperm {
				return stateAbandon, nil
			}
		}
	}

	// Stage 2: re-orthonormalize P1 and carry sign changes into Bet and T.
	if it.test {
		if err = block.QR(ws.p1, ws.r); err != nil {
			return stateDone, err
		}
		if it.j != nb {
			for i = 0; i < nb; i++ {
				if ws.r.Col(i)[i] > 0 {
					continue
				}
				for k = i; k < nb; k++ {
					ws.bet.Col(k)[i] = -ws.bet.Col(k)[i]
					m = it.j - 2*nb + k
					ws.t.Set(nb-(k-i), m, -ws.t.At(nb-(k-i), m))
				}
			}
		}
	}
	it.test = false

	// Stage 3: the block recurrence P2 = A·P1 − P1·Alp − P0·Betᵀ.
	if err = it.op.Apply(ctx, ws.p2, ws.p1); err != nil {
		return stateDone, fmt.Errorf("lanczos: operator at step %d: %w", it.j/nb, err)
	}
	it.nop++
	it.m.operatorCall()
	if err = it.store.Store(ctx, it.j-nb, ws.p1); err != nil {
		return stateDone, fmt.Errorf("lanczos: store block at %d: %w", it.j-nb, err)
	}

	for i = 0; i < nb; i++ {
		for k = i; k < nb; k++ {
			floats.AddScaled(ws.p2.Col(i), -ws.bet.Col(k)[i], ws.p0.Col(k))
		}
	}
	for i = 0; i < nb; i++ {
		for k = 0; k <= i; k++ {
			a = floats.Dot(ws.p1.Col(i), ws.p2.Col(k))
			ws.alp.Set(i-k, k, a)
			floats.AddScaled(ws.p2.Col(k), -a, ws.p1.Col(i))
			if k != i {
				floats.AddScaled(ws.p2.Col(i), -a, ws.p1.Col(k))
			}
		}
	}
	// The first block gets a second pass: nothing else protects it.
	if it.j == nb {
		for i = 0; i < nb; i++ {
			for k = 0; k <= i; k++ {
				temp = floats.Dot(ws.p1.Col(i), ws.p2.Col(k))
				floats.AddScaled(ws.p2.Col(k), -temp, ws.p1.Col(i))
				if k != i {
					floats.AddScaled(ws.p2.Col(i), -temp, ws.p1.Col(k))
				}
				ws.alp.Set(i-k, k, ws.alp.At(i-k, k)+temp)
			}
		}
	}
	if err = block.QR(ws.p2, ws.bet); err != nil {
		return stateDone, err
	}

	// Stage 4: append Alp and Bet to T.
	for i = 0; i < nb; i++ {
		m = it.j - nb + i
		for k = i; k < nb; k++ {
			ws.t.Set(k-i, m, ws.alp.At(k-i, i))
		}
		for k = 0; k <= i; k++ {
			ws.t.Set(nb-i+k, m, ws.bet.Col(i)[k])
		}
	}
	if !it.small {
		ws.t.Negate(it.j-nb, it.j)
	}
	ws.p0, ws.p1, ws.p2 = ws.p1, ws.p2, ws.p0

	if err = ws.t.SetOrder(it.j); err != nil {
		return stateDone, err
	}
	it.tmin, it.tmax = ws.t.Gershgorin(it.j-nb, it.tmin, it.tmax)
	it.anorm = max(it.rnorm, it.tmax, -it.tmin)

	// Stage 5: orthogonality trackers.
	if err = it.track(); err != nil {
		return stateDone, err
	}
	if it.j <= 2*nb {
		return stateStep, nil
	}

	it.tolg = it.epsrt * it.anorm
	it.tola = it.utol * it.rnorm
	if it.full() || (it.nop >= it.maxop && it.nleft != 0) {
		return stateCloser, nil
	}

	return stateAnalyze, nil
}

// track updates tau/otau from the extreme eigenvalues of Alp and the extreme
// singular values of Bet.
func (it *iteration) track() error {
	ws := it.ws
	var (
		i, k, m, nb      int
		lo, hi, sum, tmp float64
		err              error
	)
	nb = it.nb

	if it.number != 0 {
		var emin, emax float64
		if emin, err = it.alpEigen(0); err != nil {
			return err
		}
		if emax, err = it.alpEigen(nb - 1); err != nil {
			return err
		}
		// Alp comes from the true operator; bring it to the searched frame.
		if it.small {
			it.alpmin, it.alpmax = emin, emax
		} else {
			it.alpmin, it.alpmax = -emax, -emin
		}
	}

	// Alp := Bet·Betᵀ.
	for i = 0; i < nb; i++ {
		for k = 0; k <= i; k++ {
			sum = 0
			for m = i; m < nb; m++ {
				sum += ws.bet.Col(m)[i] * ws.bet.Col(m)[k]
			}
			ws.alp.Set(i-k, k, sum)
		}
	}
	lo, hi = ws.alp.Gershgorin(0, math.Inf(1), math.Inf(-1))
	lo = max(lo, 0)

	if it.number != 0 {
		if tmp, err = it.alpEigenIn(0, lo, hi); err != nil {
			return err
		}
		it.betmin = math.Sqrt(max(tmp, 0))
		for i = 0; i < it.number; i++ {
			tmp = (ws.tau[i]*max(it.alpmax-ws.val[i], ws.val[i]-it.alpmin) + ws.otau[i]*it.betmax + it.eps*it.anorm) / it.betmin
			if i < it.nperm {
				tmp += ws.res[i] / it.betmin
			}
			ws.otau[i] = ws.tau[i]
			ws.tau[i] = tmp
		}
	}

	if tmp, err = it.alpEigenIn(nb-1, lo, hi); err != nil {
		return err
	}
	it.betmax = math.Sqrt(max(tmp, 0))

	return nil
}

// alpEigen returns eigenvalue k (ascending) of the b×b matrix in alp.
func (it *iteration) alpEigen(k int) (float64, error) {
	lo, hi := it.ws.alp.Gershgorin(0, math.Inf(1), math.Inf(-1))

	return it.alpEigenIn(k, lo, hi)
}

func (it *iteration) alpEigenIn(k int, lo, hi float64) (float64, error) {
	var v [1]float64
	it.ws.alpVec.Zero()
	if err := it.ws.alpSolve.Eigen(it.ws.alp, k, k+1, v[:], it.ws.alpVec, it.eps, lo, hi); err != nil {
		return 0, fmt.Errorf("lanczos: block eigenvalue %d: %w", k, err)
	}

	return v[0], nil
}

// abandon drops the block that lost orthogonality.
func (it *iteration) abandon() iterState {
	it.j -= it.nb
	it.status = StatusOrthogonalityLoss
	it.logger.Debug("lanczos orthogonality lost", "j", it.j, "nperm", it.nperm)

	return stateCloser
}

// closer forces a full analysis followed by a restart.
func (it *iteration) closer() iterState {
	if it.nleft == 0 {
		return stateDone
	}
	it.test = true

	return stateAnalyze
}

// accept moves the good vectors into the permanent set and decides what next.
func (it *iteration) accept() (iterState, error) {
	ws := it.ws
	var (
		i, k int
		err  error
	)
	if it.ngood == 0 && it.nop >= it.maxop {
		return stateBudget, nil
	}
	if it.ngood == 0 {
		return stateRestart, nil
	}

	k = it.nperm + it.ngood
	if err = block.QR(ws.vecs(k), ws.square(k)); err != nil {
		return stateDone, err
	}
	if it.nperm != 0 {
		if err = block.SortPairs(ws.val[:k], ws.res[:k], nil, ws.vecs(k)); err != nil {
			return stateDone, err
		}
	}
	it.m.accepted(it.ngood)
	it.logger.Debug("lanczos accepted", "count", it.ngood, "nperm", k, "operator_calls", it.nop)
	it.nperm = k
	it.nleft -= it.ngood
	it.rnorm = max(-ws.val[0], ws.val[it.nperm-1])

	if it.nop >= it.maxop && it.nleft != 0 {
		return stateBudget, nil
	}
	if it.nleft != 0 {
		return stateRestart, nil
	}
	if ws.val[it.nval-1]-ws.val[0] < it.tola {
		return stateFinish, nil
	}

	// A cluster as wide as a block may hide further copies: run a check.
	k = it.nperm - it.nb + 1
	if k <= 0 {
		return stateDone, nil
	}
	for i = 0; i < k; i++ {
		if ws.val[i+it.nb-1]-ws.val[i] < it.tola {
			return stateRestart, nil
		}
	}

	return stateFinish, nil
}

// finish asks for a final Rayleigh–Ritz when values closer than tola sit a
// whole block apart.
func (it *iteration) finish() iterState {
	ws := it.ws
	var i, m int
	m = it.nperm - it.nb
	for i = 0; i < m; i++ {
		if ws.val[i+it.nb]-ws.val[i] < it.tola {
			it.raritz = true
			break
		}
	}

	return stateDone
}
