// SPDX-License-Identifier: MIT
// Package: laso/band
//
// solver.go — partial eigendecomposition of a symmetric band matrix.
//
// Algorithm (per wanted eigenvalue, in ascending order):
//   1. Rayleigh quotient rq and residual of the current iterate.
//   2. Accept when the Sturm bracket is narrower than 3·atol, or when the
//      residual is at the noise level and [rq−errb, rq+errb] sits strictly
//      between the neighbouring brackets.
//   3. Otherwise pick a shift: the bracket midpoint, pulled toward rq when rq is
//      trustworthy; iterates that clearly belong to another eigenvalue are
//      parked in that eigenvalue's slot and replaced by a random vector.
//   4. Factor (A − σI), take the inertia count to tighten brackets, and run one
//      inverse-iteration step on the current and a few following iterates.
//   5. On acceptance, orthogonalize against earlier eigenvectors and deflate
//      the later iterates.
//
// Determinism: randomness comes only from the Source passed to NewSolver.

package band

import (
	"fmt"
	"math"

	"github.com/katalvlaran/laso/block"
	"github.com/katalvlaran/laso/rng"
	"gonum.org/v1/gonum/floats"
)

const (
	methodEigen = "Eigen"

	// maxShifts caps factorizations per eigenvalue. Bisection alone halves the
	// bracket each time, so this is far above anything a finite float range needs.
	maxShifts = 4096
)

// Solver holds the scratch space of the band eigensolver. It is not safe for
// concurrent use; reuse it across calls of one solve.
type Solver struct {
	src      *rng.Source
	capacity int
	width    int
	fac      factorizer
	lo, hi   []float64 // per-slot brackets; slot 0 and nval+1 are the neighbours
	work     []float64 // A·x and residual vector
	rhs      [][]float64
}

// NewSolver allocates scratch for matrices of order ≤ capacity and the given width.
// Complexity: O(capacity*width).
func NewSolver(capacity, width int, src *rng.Source) (*Solver, error) {
	if capacity <= 0 || width <= 0 {
		return nil, fmt.Errorf("band.NewSolver(%d,%d): %w", capacity, width, ErrBadShape)
	}
	if src == nil {
		src = rng.New(0)
	}

	return &Solver{
		src:      src,
		capacity: capacity,
		width:    width,
		fac:      newFactorizer(capacity, width),
		lo:       make([]float64, capacity+2),
		hi:       make([]float64, capacity+2),
		work:     make([]float64, capacity),
		rhs:      make([][]float64, 0, width+2),
	}, nil
}

// Tolerance returns atol = n·eps·max(tmax, −tmin), the absolute accuracy the
// solver targets for an order-n matrix with spectrum inside [tmin, tmax].
func Tolerance(n int, eps, tmin, tmax float64) float64 {
	return float64(n) * eps * max(tmax, -tmin)
}

// Eigen computes eigenvalues from..to−1 (0-based, ascending) of a, which must
// lie in [tmin, tmax]. vals receives to−from values; the first a.Order() rows of
// vecs columns 0..to−from−1 receive unit eigenvectors. Non-zero columns of vecs
// on entry are used as starting iterates, so repeated calls on a growing
// matrix converge quickly.
// Complexity: O(k·s·n·w²) for k eigenvalues and s shifts each.
func (s *Solver) Eigen(a *Matrix, from, to int, vals []float64, vecs *block.Block, eps, tmin, tmax float64) error {
	var (
		n, nval int
	)
	n = a.n
	nval = to - from
	if a.width != s.width || n > s.capacity {
		return fmt.Errorf("%s: matrix %d/w%d vs solver %d/w%d: %w", methodEigen, n, a.width, s.capacity, s.width, ErrDimensionMismatch)
	}
	if from < 0 || to > n || nval <= 0 {
		return fmt.Errorf("%s: range [%d,%d) of order %d: %w", methodEigen, from, to, n, ErrOutOfRange)
	}
	if len(vals) < nval || vecs.Rows() < n || vecs.Cols() < nval {
		return fmt.Errorf("%s: storage %d values, %dx%d vectors for %d pairs of order %d: %w",
			methodEigen, len(vals), vecs.Rows(), vecs.Cols(), nval, n, ErrDimensionMismatch)
	}

	// Order one has a closed form.
	if n == 1 {
		vals[0] = a.At(0, 0)
		vecs.Col(0)[0] = 1
		return nil
	}

	// A point interval means A = tmin·I: any basis is an eigenbasis.
	var p int
	if tmax-tmin <= 0 {
		for p = 0; p < nval; p++ {
			vals[p] = tmin
			clear(col(vecs, p, n))
			vecs.Col(p)[from+p] = 1
		}
		return nil
	}

	// Stage 1: seed the brackets from the spectral bounds.
	for p = 1; p <= nval; p++ {
		s.lo[p] = tmin
		s.hi[p] = tmax
	}
	s.hi[0] = tmax
	s.lo[nval+1] = tmin
	if from == 0 {
		s.hi[0] = tmin
	}
	if to == n {
		s.lo[nval+1] = tmax
	}

	atol := Tolerance(n, eps, tmin, tmax)

	return s.iterate(a, from, nval, vals, vecs, atol, atol/math.Sqrt(eps))
}

// Inertia returns the number of eigenvalues of a strictly below sigma, from
// one factorization of (A − σI).
// Complexity: O(n·w²).
func (s *Solver) Inertia(a *Matrix, sigma float64) (int, error) {
	if a.width != s.width || a.n > s.capacity {
		return 0, fmt.Errorf("Inertia: matrix %d/w%d vs solver %d/w%d: %w", a.n, a.width, s.capacity, s.width, ErrDimensionMismatch)
	}

	return s.fac.run(a, sigma, nil, 0), nil
}

// col returns the active part of eigenvector slot j.
func col(vecs *block.Block, j, n int) []float64 { return vecs.Col(j)[:n] }

// iterate runs the shift loop for every slot.
func (s *Solver) iterate(a *Matrix, from, nval int, vals []float64, vecs *block.Block, atol, artol float64) error {
	var (
		n, j, i, p, numl, numvec, shifts int
		sigma, rq, vnorm, resid          float64
		errb, gap                        float64
		x, vt                            []float64
		prepare, perturb, tail           bool
	)
	n = a.n
	vt = s.work[:n]

	// Zero iterates carry no information; start them at random.
	for j = 0; j < nval; j++ {
		x = col(vecs, j, n)
		if floats.Dot(x, x) == 0 {
			s.src.Fill(x)
		}
	}

	sigma = s.hi[nval]
	for j = 0; j < nval; j++ {
		p = j + 1
		x = col(vecs, j, n)
		prepare = true
		shifts = 0

		for {
			if shifts > maxShifts {
				return fmt.Errorf("%s: eigenvalue %d after %d shifts: %w", methodEigen, from+j, shifts, ErrNoConvergence)
			}

			// vt = (A − σI)·x for a freshly normalized iterate.
			if prepare {
				a.MulVec(vt, x)
				vnorm = floats.Norm(vt, 2)
				if vnorm != 0 {
					floats.Scale(1/vnorm, vt)
					floats.Scale(1/vnorm, x)
					floats.AddScaled(vt, -sigma, x)
				}
				prepare = false
			}

			vnorm = floats.Norm(x, 2)
			if vnorm == 0 {
				s.src.Fill(x)
				prepare = true
				continue
			}

			// Rayleigh quotient, residual and current tolerance.
			rq = sigma + floats.Dot(x, vt)/vnorm/vnorm
			floats.AddScaled(vt, sigma-rq, x)
			resid = max(atol, floats.Norm(vt, 2)/vnorm)
			floats.Scale(1/vnorm, x)

			if s.hi[p]-s.lo[p] < 3*atol {
				if err := s.accept(a, j, from, nval, vals, vecs, rq, true, atol); err != nil {
					return err
				}
				break
			}

			errb = resid
			gap = min(s.lo[p+1]-rq, rq-s.hi[p-1])
			if gap > resid {
				errb = max(atol, resid*resid/gap)
			}

			sigma = (s.lo[p] + s.hi[p]) * 0.5

			if resid <= 2*atol && rq-errb > s.hi[p-1] && rq+errb < s.lo[p+1] {
				if err := s.accept(a, j, from, nval, vals, vecs, rq, false, atol); err != nil {
					return err
				}
				break
			}

			// Decide between a perturbed Rayleigh shift and the midpoint.
			perturb = false
			switch {
			case rq < s.lo[p]:
				if rq-errb > s.hi[p-1] {
					perturb = true
				} else if rq+errb < s.lo[p] {
					s.src.Fill(x)
				}
			case rq <= s.hi[p] || rq+errb < s.lo[p+1]:
				perturb = true
			case rq-errb > s.hi[p]:
				// x converged to a later eigenvalue: park it in that slot.
				for i = j; i < nval; i++ {
					if s.hi[i+1] > rq {
						copy(col(vecs, i, n), x)
						break
					}
				}
				s.src.Fill(x)
			}
			if perturb {
				if sigma < rq {
					sigma = max(sigma, rq-errb)
				}
				if sigma > rq {
					sigma = min(sigma, rq+errb)
				}
			}

			// Factor and solve for the current iterate and the slots whose
			// brackets the shift already exceeds.
			for i = j; i < nval; i++ {
				if sigma < s.lo[i+1] {
					break
				}
			}
			numvec = min(i-j, s.width+2)
			if resid < artol {
				numvec = min(1, numvec)
			}
			copy(vt, x)
			s.rhs = s.rhs[:0]
			for i = 0; i < numvec; i++ {
				s.rhs = append(s.rhs, col(vecs, j+i, n))
			}
			numl = s.fac.run(a, sigma, s.rhs, atol)
			shifts++
			for i = 1; i < numvec; i++ {
				floats.Scale(1/vnorm, s.rhs[i])
			}

			// Tighten the brackets with the inertia count.
			numl -= from
			if numl >= 0 {
				s.hi[0] = min(s.hi[0], sigma)
			}
			tail = true
			for i = j; i < nval; i++ {
				if sigma < s.lo[i+1] {
					tail = false
					break
				}
				if numl < i+1 {
					s.lo[i+1] = sigma
				} else {
					s.hi[i+1] = sigma
				}
			}
			if tail && numl < nval+1 && sigma > s.lo[nval+1] {
				s.lo[nval+1] = sigma
			}

			// A shift below the bracket solved nothing; vt no longer matches x.
			if numvec == 0 {
				s.src.Fill(x)
				prepare = true
			}
		}
	}

	return nil
}

// accept stores eigenvalue slot j and deflates. When refine is set the
// bracket alone determined the value: the vector is rebuilt by one inverse
// iteration at the bracket midpoint from a random start.
func (s *Solver) accept(a *Matrix, j, from, nval int, vals []float64, vecs *block.Block, rq float64, refine bool, atol float64) error {
	var (
		n, i, p, tries int
		x, y           []float64
		nrm            float64
	)
	n = a.n
	p = j + 1
	x = col(vecs, j, n)
	if refine {
		s.src.Fill(x)
	}

	for tries = 0; ; tries++ {
		if tries > maxShifts {
			return fmt.Errorf("%s: eigenvector %d: %w", methodEigen, from+j, ErrNoConvergence)
		}
		for i = 0; i < j; i++ {
			y = col(vecs, i, n)
			floats.AddScaled(x, -floats.Dot(y, x), y)
		}
		nrm = floats.Norm(x, 2)
		if nrm != 0 && !refine {
			floats.Scale(1/nrm, x)
			break
		}
		if nrm != 0 {
			floats.Scale(1/nrm, x)
		} else {
			s.src.Fill(x)
		}

		// One inverse-iteration step at the bracket midpoint.
		refine = false
		rq = (s.lo[p] + s.hi[p]) * 0.5
		s.rhs = append(s.rhs[:0], x)
		s.fac.run(a, rq, s.rhs, atol)
		nrm = floats.Norm(x, 2)
		if nrm != 0 {
			floats.Scale(1/nrm, x)
		}
	}
	vals[j] = rq

	// Deflate the later iterates against the accepted vector.
	for i = j + 1; i < nval; i++ {
		y = col(vecs, i, n)
		floats.AddScaled(y, -floats.Dot(x, y), x)
	}

	return nil
}
