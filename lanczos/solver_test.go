// Package lanczos_test solves known-answer problems end to end through the
// reference operators and stores.
package lanczos_test

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/katalvlaran/laso/block"
	"github.com/katalvlaran/laso/lanczos"
	"github.com/katalvlaran/laso/operator"
	"github.com/katalvlaran/laso/rng"
	"github.com/katalvlaran/laso/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	valTol = 1e-6 // eigenvalue agreement at 10 digits
	vecTol = 1e-4 // eigenvector agreement
)

// spread returns a diagonal with the given leading entries followed by
// n−len(head) values spread evenly over [10, 20].
func spread(n int, head ...float64) operator.Diagonal {
	d := make(operator.Diagonal, n)
	copy(d, head)
	var i int
	m := n - len(head)
	for i = 0; i < m; i++ {
		d[len(head)+i] = 10 + 10*float64(i)/float64(m-1)
	}

	return d
}

func diagConfig(n, wanted int) lanczos.Config {
	cfg := lanczos.DefaultConfig(n)
	cfg.Wanted = wanted
	cfg.Digits = 10
	cfg.Seed = 1
	return cfg
}

// requireUnit asserts that v is ±e_k.
func requireUnit(t *testing.T, v []float64, k int) {
	t.Helper()
	require.InDelta(t, 1.0, math.Abs(v[k]), vecTol, "component %d", k)
	require.InDelta(t, 1.0, floats.Norm(v, 2), vecTol)
}

// TestSmallestOfDiagonal recovers the three smallest entries and their unit vectors.
func TestSmallestOfDiagonal(t *testing.T) {
	op := operator.NewCounting(spread(200, 1, 2, 3))
	rep, err := lanczos.Solve(context.Background(), diagConfig(200, -3), op, store.NewMemory(), lanczos.Input{})
	require.NoError(t, err)
	require.Equal(t, lanczos.StatusConverged, rep.Status)
	require.Nil(t, rep.Checkpoint)
	require.Len(t, rep.Pairs, 3)
	require.Equal(t, op.Calls(), rep.OperatorCalls)

	var i int
	for i = 0; i < 3; i++ {
		p := rep.Pairs[i]
		require.InDelta(t, float64(i+1), p.Value, valTol, "eigenvalue %d", i)
		require.LessOrEqual(t, math.Abs(p.Value-float64(i+1)), p.Residual+1e-12)
		require.GreaterOrEqual(t, p.VectorAccuracy, 0.0)
		requireUnit(t, p.Vector, i)
	}
	require.Greater(t, rep.Boundary, 3.0)
}

// TestLargestReportedDescending pins the largest-mode convention: true
// eigenvalues, most wanted first.
func TestLargestReportedDescending(t *testing.T) {
	rep, err := lanczos.Solve(context.Background(), diagConfig(150, 3), spread(150, 30, 29, 28), store.NewMemory(), lanczos.Input{})
	require.NoError(t, err)
	require.Equal(t, lanczos.StatusConverged, rep.Status)
	require.Len(t, rep.Pairs, 3)

	var i int
	for i = 0; i < 3; i++ {
		require.InDelta(t, float64(30-i), rep.Pairs[i].Value, valTol)
		requireUnit(t, rep.Pairs[i].Vector, i)
	}
	require.Less(t, rep.Boundary, 28.0)
}

// TestPathLaplacian finds the bottom of a spectrum that starts with a null vector.
func TestPathLaplacian(t *testing.T) {
	l, err := operator.Path(100)
	require.NoError(t, err)
	cfg := lanczos.DefaultConfig(100)
	cfg.BlockSize = 3
	cfg.Wanted = -4
	cfg.Digits = 10

	sp, err := store.NewSpill(t.TempDir(), store.CodecLZ4)
	require.NoError(t, err)
	defer sp.Close()

	rep, err := lanczos.Solve(context.Background(), cfg, l, sp, lanczos.Input{})
	require.NoError(t, err)
	require.Equal(t, lanczos.StatusConverged, rep.Status)
	want := operator.PathSpectrum(100)
	var i int
	for i = 0; i < 4; i++ {
		require.InDelta(t, want[i], rep.Pairs[i].Value, valTol, "eigenvalue %d", i)
	}
}

// TestBudgetExceededThenResume stops after a tiny budget and finishes from
// the checkpoint.
func TestBudgetExceededThenResume(t *testing.T) {
	op := spread(200, 1, 2, 3)
	cfg := diagConfig(200, -3)
	cfg.MaxOperatorCalls = 3
	s := lanczos.NewSolver(cfg)
	vs := store.NewMemory()

	rep, err := s.Solve(context.Background(), op, vs, lanczos.Input{})
	require.NoError(t, err)
	require.Equal(t, lanczos.StatusBudgetExceeded, rep.Status)
	require.NotNil(t, rep.Checkpoint)
	require.GreaterOrEqual(t, rep.OperatorCalls, 3)
	require.Equal(t, 200, rep.Checkpoint.Start.Rows())
	require.Equal(t, 2, rep.Checkpoint.Start.Cols())

	cfg.MaxOperatorCalls = 1000
	rep, err = lanczos.NewSolver(cfg).Solve(context.Background(), op, vs, rep.Checkpoint.Input())
	require.NoError(t, err)
	require.Equal(t, lanczos.StatusConverged, rep.Status)
	var i int
	for i = 0; i < 3; i++ {
		require.InDelta(t, float64(i+1), rep.Pairs[i].Value, valTol)
	}
}

// TestKnownPairIsKept supplies the exact smallest pair up front.
func TestKnownPairIsKept(t *testing.T) {
	e0 := make([]float64, 200)
	e0[0] = 1
	vecs, err := block.FromColumns(e0)
	require.NoError(t, err)

	rep, err := lanczos.Solve(context.Background(), diagConfig(200, -3), spread(200, 1, 2, 3), store.NewMemory(),
		lanczos.Input{Values: []float64{1}, Residuals: []float64{0}, Vectors: vecs})
	require.NoError(t, err)
	require.Equal(t, lanczos.StatusConverged, rep.Status)
	var i int
	for i = 0; i < 3; i++ {
		require.InDelta(t, float64(i+1), rep.Pairs[i].Value, valTol)
		requireUnit(t, rep.Pairs[i].Vector, i)
	}
}

func TestDegenerateKnownVectors(t *testing.T) {
	e0 := make([]float64, 100)
	e0[0] = 1
	vecs, err := block.FromColumns(e0, e0)
	require.NoError(t, err)
	op := operator.NewCounting(spread(100, 1, 2, 3))

	_, err = lanczos.Solve(context.Background(), diagConfig(100, -3), op, store.NewMemory(),
		lanczos.Input{Values: []float64{1, 2}, Residuals: []float64{0, 0}, Vectors: vecs})
	require.ErrorIs(t, err, lanczos.ErrDegenerateInput)
	require.Zero(t, op.Calls())
}

func TestNilCollaborators(t *testing.T) {
	cfg := diagConfig(100, -1)
	_, err := lanczos.Solve(context.Background(), cfg, nil, store.NewMemory(), lanczos.Input{})
	require.ErrorIs(t, err, lanczos.ErrNilOperator)
	_, err = lanczos.Solve(context.Background(), cfg, spread(100), nil, lanczos.Input{})
	require.ErrorIs(t, err, lanczos.ErrNilStore)
}

// TestStoresAgree runs the same solve through every backend. The stores are
// lossless, so the results are identical.
func TestStoresAgree(t *testing.T) {
	op := spread(120, 1, 2, 3)
	cfg := diagConfig(120, -2)

	sp, err := store.NewSpill(t.TempDir(), store.CodecZstd)
	require.NoError(t, err)
	defer sp.Close()
	bg, err := store.OpenBadger(store.BadgerConfig{InMemory: true, Codec: store.CodecLZ4})
	require.NoError(t, err)
	defer bg.Close()

	var reports []*lanczos.Report
	for _, vs := range []lanczos.VectorStore{store.NewMemory(), sp, bg} {
		rep, err := lanczos.Solve(context.Background(), cfg, op, vs, lanczos.Input{})
		require.NoError(t, err)
		reports = append(reports, rep)
	}
	require.Equal(t, reports[0], reports[1])
	require.Equal(t, reports[0], reports[2])
}

// TestSolverReuseIsDeterministic solves twice with one Solver.
func TestSolverReuseIsDeterministic(t *testing.T) {
	s := lanczos.NewSolver(diagConfig(100, -2))
	require.Equal(t, 100, s.Config().N)
	first, err := s.Solve(context.Background(), spread(100, 1, 2), store.NewMemory(), lanczos.Input{})
	require.NoError(t, err)
	second, err := s.Solve(context.Background(), spread(100, 1, 2), store.NewMemory(), lanczos.Input{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMetricsAndTracing(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := lanczos.NewMetrics(reg)
	require.NoError(t, err)
	_, err = lanczos.NewMetrics(reg)
	require.Error(t, err, "second registration must collide")

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	rep, err := lanczos.Solve(context.Background(), diagConfig(100, -2), spread(100, 1, 2), store.NewMemory(), lanczos.Input{},
		lanczos.WithMetrics(m), lanczos.WithTracer(tp.Tracer("test")))
	require.NoError(t, err)

	require.Equal(t, float64(rep.OperatorCalls), testutil.ToFloat64(m.OperatorCalls))
	require.GreaterOrEqual(t, testutil.ToFloat64(m.AcceptedPairs), 2.0)
	require.GreaterOrEqual(t, testutil.ToFloat64(m.Restarts), 1.0)
	require.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues("converged")))
	require.Equal(t, 1, testutil.CollectAndCount(m.Duration))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "lanczos.Solve", spans[0].Name())
	var status string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "laso.status" {
			status = kv.Value.AsString()
		}
	}
	require.Equal(t, "converged", status)
}

// TestFullSubspaceRestarts covers shapes where T fills up while fewer Ritz
// values than wanted can be trusted: the forced analysis examines every value
// T offers and the run restarts instead of growing T past MaxSubspace.
func TestFullSubspaceRestarts(t *testing.T) {
	d := make(operator.Diagonal, 40)
	var i, nb, maxj int
	for i = range d {
		d[i] = float64(i + 1)
	}
	for nb = 1; nb <= 4; nb++ {
		for maxj = 6 * nb; maxj <= 6*nb+7; maxj++ {
			for _, sign := range []int{-1, 1} {
				cfg := lanczos.DefaultConfig(len(d))
				cfg.BlockSize = nb
				cfg.MaxSubspace = maxj
				cfg.Wanted = sign * (maxj/2 - 1)
				cfg.Seed = 1

				rep, err := lanczos.Solve(context.Background(), cfg, d, store.NewMemory(), lanczos.Input{})
				require.NoError(t, err, "nb=%d maxj=%d wanted=%d", nb, maxj, cfg.Wanted)
				require.Contains(t, []lanczos.Status{lanczos.StatusConverged, lanczos.StatusBudgetExceeded}, rep.Status)
				require.LessOrEqual(t, len(rep.Pairs), maxj/2-1)
				for _, p := range rep.Pairs {
					// Some eigenvalue k lies within the residual of every Rayleigh quotient.
					k := math.Min(math.Max(math.Round(p.Value), 1), 40)
					require.LessOrEqual(t, math.Abs(p.Value-k), p.Residual+1e-9, "nb=%d maxj=%d", nb, maxj)
				}
			}
		}
	}
}

// rotated returns Q·diag(spectrum)·Qᵀ for a random orthogonal Q, together
// with Q.
func rotated(t *testing.T, spectrum []float64) (*operator.Dense, *mat.Dense) {
	t.Helper()
	n := len(spectrum)
	data := make([]float64, n*n)
	rng.New(7).Fill(data)
	var qr mat.QR
	qr.Factorize(mat.NewDense(n, n, data))
	var q mat.Dense
	qr.QTo(&q)

	a := mat.NewSymDense(n, nil)
	var i, j, k int
	var sum float64
	for i = 0; i < n; i++ {
		for j = i; j < n; j++ {
			sum = 0
			for k = 0; k < n; k++ {
				sum += q.At(i, k) * spectrum[k] * q.At(j, k)
			}
			a.SetSym(i, j, sum)
		}
	}

	return operator.NewDense(a), &q
}

// TestAccuracyOfRotatedDiagonal checks the guarantees on a full matrix with a
// known spectrum. Eigenvalue errors stay at the user tolerance. Residuals are
// only bounded by its square root times the gap, which is what acceptance
// through min(res²/gap, res) allows.
func TestAccuracyOfRotatedDiagonal(t *testing.T) {
	spectrum := []float64(spread(120, 1, 2, 3))
	op, q := rotated(t, spectrum)
	cfg := diagConfig(120, -3)
	utol := math.Pow(10, -float64(cfg.Digits))
	const norm = 20.0

	rep, err := lanczos.Solve(context.Background(), cfg, op, store.NewMemory(), lanczos.Input{})
	require.NoError(t, err)
	require.Equal(t, lanczos.StatusConverged, rep.Status)
	require.Len(t, rep.Pairs, 3)

	var i int
	for i = 0; i < 3; i++ {
		p := rep.Pairs[i]
		lambda := spectrum[i]
		// Distance from the value to the rest of the spectrum.
		gap := 1 - math.Abs(p.Value-lambda)

		require.LessOrEqual(t, math.Abs(p.Value-lambda), 100*utol*norm, "eigenvalue %d", i)
		require.LessOrEqual(t, math.Abs(p.Value-lambda), p.Residual*p.Residual/gap+1e-12, "eigenvalue %d", i)
		require.LessOrEqual(t, p.Residual, math.Sqrt(100*utol)*norm, "eigenvalue %d", i)
		require.InDelta(t, 1.0, math.Abs(floats.Dot(p.Vector, mat.Col(nil, i, q))), vecTol, "eigenvector %d", i)
	}
}

// captureDebug returns a logger that records debug output into buf.
func captureDebug(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// TestOvertakenKnownPairIsDropped supplies an exact pair that is not the
// smallest: the iteration finds a lower value, gives the known pair up and
// reports the true smallest one.
func TestOvertakenKnownPairIsDropped(t *testing.T) {
	e1 := make([]float64, 150)
	e1[1] = 1
	vecs, err := block.FromColumns(e1)
	require.NoError(t, err)
	var buf bytes.Buffer

	rep, err := lanczos.Solve(context.Background(), diagConfig(150, -1), spread(150, 1, 5), store.NewMemory(),
		lanczos.Input{Values: []float64{5}, Residuals: []float64{0}, Vectors: vecs},
		lanczos.WithLogger(captureDebug(&buf)))
	require.NoError(t, err)
	require.Equal(t, lanczos.StatusConverged, rep.Status)
	require.Len(t, rep.Pairs, 1)
	require.InDelta(t, 1.0, rep.Pairs[0].Value, valTol)
	requireUnit(t, rep.Pairs[0].Vector, 0)
	require.Contains(t, buf.String(), "lanczos dropped permanent pair")
}

// TestGoodVectorsJoinWithoutRestart wants an isolated value that converges
// long before a clustered one: it becomes a good vector inside the running
// Krylov space and both pairs are accepted in order.
func TestGoodVectorsJoinWithoutRestart(t *testing.T) {
	cfg := diagConfig(150, -2)
	cfg.BlockSize = 1
	var buf bytes.Buffer

	rep, err := lanczos.Solve(context.Background(), cfg, spread(150, 1, 9.5), store.NewMemory(), lanczos.Input{},
		lanczos.WithLogger(captureDebug(&buf)))
	require.NoError(t, err)
	require.Equal(t, lanczos.StatusConverged, rep.Status)
	require.Len(t, rep.Pairs, 2)
	require.InDelta(t, 1.0, rep.Pairs[0].Value, valTol)
	require.InDelta(t, 9.5, rep.Pairs[1].Value, valTol)
	require.Less(t, rep.Pairs[0].Value, rep.Pairs[1].Value)
	require.Contains(t, buf.String(), "lanczos good vectors")
}

// TestOperatorPanicPassesThrough keeps a panicking operator's value intact
// through the span bookkeeping, and the span is still ended.
func TestOperatorPanicPassesThrough(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())
	op := lanczos.OperatorFunc(func(context.Context, *block.Block, *block.Block) error {
		panic("operator failed")
	})

	require.PanicsWithValue(t, "operator failed", func() {
		_, _ = lanczos.Solve(context.Background(), diagConfig(100, -2), op, store.NewMemory(), lanczos.Input{},
			lanczos.WithTracer(tp.Tracer("test")))
	})
	require.Len(t, rec.Ended(), 1)
}
