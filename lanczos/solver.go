// SPDX-License-Identifier: MIT
// Package: laso/lanczos
//
// solver.go — the driver: validation, known pairs, iteration, report.
//
// Contract:
//   • Every parameter violation is reported at once as *ParamError before the
//     first operator call.
//   • Known eigenpairs are moved to the searched frame (negated in largest
//     mode), sorted, orthonormalized and checked for degeneracy.
//   • The iteration runs until convergence or the budget; the post-processor
//     runs whenever at least one pair was accepted.
//   • Report pairs are true eigenvalues, most wanted first.
//
// Complexity: dominated by operator calls and O(n·b²) work per step.

package lanczos

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/katalvlaran/laso/block"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"
)

// degenerateRatio is the fraction of a known vector's norm its QR pivot must keep.
const degenerateRatio = 0.9

// Solver runs LASO solves with a fixed Config. Its workspace is reused by
// later solves of the same shape, so resuming from a Checkpoint does not
// reallocate. A Solver is not safe for concurrent use.
type Solver struct {
	cfg  Config
	opts options
	ws   *workspace
}

// NewSolver returns a Solver for cfg. The configuration is validated by Solve,
// together with the Input.
func NewSolver(cfg Config, opts ...Option) *Solver {
	s := &Solver{cfg: cfg, opts: defaultOptions()}
	for _, opt := range opts {
		opt(&s.opts)
	}

	return s
}

// Config returns the solver's configuration.
func (s *Solver) Config() Config { return s.cfg }

// Solve computes |Wanted| extreme eigenpairs of op. vs keeps the Lanczos basis
// between steps; in carries an optional starting block and known pairs.
//
// A nil error comes with a Report whose Status tells whether every pair was
// found. Budget exhaustion and loss of orthogonality are statuses, not errors:
// the Report then carries a Checkpoint for the next call.
func (s *Solver) Solve(ctx context.Context, op Operator, vs VectorStore, in Input) (rep *Report, err error) {
	if op == nil {
		return nil, ErrNilOperator
	}
	if vs == nil {
		return nil, ErrNilStore
	}
	cfg := s.cfg
	if err = validate(cfg, &in); err != nil {
		return nil, err
	}

	ctx, span := s.opts.tracer.Start(ctx, "lanczos.Solve", trace.WithAttributes(
		attribute.Int("laso.n", cfg.N),
		attribute.Int("laso.block_size", cfg.BlockSize),
		attribute.Int("laso.wanted", cfg.Wanted),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if rep != nil {
			span.SetAttributes(
				attribute.String("laso.status", rep.Status.String()),
				attribute.Int("laso.operator_calls", rep.OperatorCalls),
			)
		}
		span.End()
	}()
	began := time.Now()

	// Stage 1: workspace.
	nval := cfg.count()
	if !s.ws.fits(cfg.N, cfg.BlockSize, cfg.MaxSubspace, nval) {
		if s.ws, err = newWorkspace(cfg.N, cfg.BlockSize, cfg.MaxSubspace, nval, cfg.Seed); err != nil {
			return nil, err
		}
	}
	ws := s.ws
	ws.reset(cfg.Seed)
	if in.Start != nil {
		if err = ws.p1.CopyFrom(in.Start); err != nil {
			return nil, err
		}
	}

	it := &iteration{
		op:     op,
		store:  vs,
		ws:     ws,
		logger: s.opts.logger,
		m:      s.opts.metrics,
		n:      cfg.N,
		nb:     cfg.BlockSize,
		nval:   nval,
		maxj:   cfg.MaxSubspace,
		maxop:  cfg.MaxOperatorCalls,
		digits: cfg.Digits,
		small:  !cfg.largest(),
		eps:    machineEpsilon(),
		status: StatusConverged,
	}

	// Stage 2: known pairs.
	if len(in.Values) > 0 {
		if err = it.loadKnown(in); err != nil {
			return nil, err
		}
	}

	// Stage 3: iterate, then refine.
	if err = it.run(ctx); err != nil {
		return nil, err
	}
	if it.nperm > 0 {
		if err = it.postprocess(ctx); err != nil {
			return nil, err
		}
	}

	rep = it.report()
	elapsed := time.Since(began)
	s.opts.metrics.solved(rep.Status, elapsed)
	s.opts.logger.Info("lanczos solve finished",
		"status", rep.Status.String(),
		"pairs", len(rep.Pairs),
		"operator_calls", rep.OperatorCalls,
		"boundary", rep.Boundary,
		"duration", elapsed,
	)

	return rep, nil
}

// Solve is a convenience for NewSolver(cfg, opts...).Solve(ctx, op, vs, in).
func Solve(ctx context.Context, cfg Config, op Operator, vs VectorStore, in Input, opts ...Option) (*Report, error) {
	return NewSolver(cfg, opts...).Solve(ctx, op, vs, in)
}

// loadKnown moves the caller's eigenpairs into the permanent set.
// Complexity: O(n·nperm²).
func (it *iteration) loadKnown(in Input) error {
	ws := it.ws
	var (
		i, k  int
		r     float64
		v, r2 *block.Block
	)
	k = len(in.Values)
	copy(ws.val, in.Values)
	for i = 0; i < k; i++ {
		ws.res[i] = math.Abs(in.Residuals[i])
		copy(ws.vec.Col(i), in.Vectors.Col(i))
		if !it.small {
			ws.val[i] = -ws.val[i]
		}
	}
	v = ws.vecs(k)
	if err := block.SortPairs(ws.val[:k], ws.res[:k], nil, v); err != nil {
		return err
	}
	for i = 0; i < k; i++ {
		ws.norms[i] = floats.Norm(v.Col(i), 2)
	}

	r2 = ws.square(k)
	if err := block.QR(v, r2); err != nil {
		return err
	}
	for i = 0; i < k; i++ {
		r = r2.Col(i)[i]
		if math.Abs(r) <= degenerateRatio*ws.norms[i] {
			return fmt.Errorf("%w: vector %d keeps |R_ii| = %g of norm %g", ErrDegenerateInput, i, math.Abs(r), ws.norms[i])
		}
	}
	it.nperm = k

	return nil
}

// report assembles the outcome from the finished iteration.
func (it *iteration) report() *Report {
	ws := it.ws
	var i int
	rep := &Report{
		Pairs:         make([]Eigenpair, it.nperm),
		OperatorCalls: it.nop,
		Status:        it.status,
		Boundary:      it.boundary(),
	}
	for i = 0; i < it.nperm; i++ {
		rep.Pairs[i] = Eigenpair{
			Value:          ws.val[i],
			Residual:       ws.res[i],
			ValueAccuracy:  ws.valAcc[i],
			VectorAccuracy: ws.vecAcc[i],
			Vector:         append([]float64(nil), ws.vec.Col(i)...),
		}
	}
	if it.status == StatusConverged {
		return rep
	}

	cp := &Checkpoint{Start: ws.p1.Clone()}
	if it.nperm > 0 {
		cp.Values = append([]float64(nil), ws.val[:it.nperm]...)
		cp.Residuals = append([]float64(nil), ws.res[:it.nperm]...)
		cp.Vectors = ws.vecs(it.nperm).Clone()
	}
	rep.Checkpoint = cp

	return rep
}

// machineEpsilon halves 1 until adding it to 1 no longer changes 1.
func machineEpsilon() float64 {
	eps := 1.0
	for 1+eps != 1 {
		eps *= 0.5
	}

	return eps
}
