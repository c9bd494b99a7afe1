package lanczos

import (
	"context"

	"github.com/katalvlaran/laso/block"
)

// Operator applies a symmetric linear operator A to a block of vectors.
//
// Apply must set dst = A·src for every column; dst and src have the same
// shape and never alias. The result must depend only on src: the solver
// re-applies A across restarts and relies on consistent answers. The block
// width varies between calls (the post-processor applies partial blocks).
type Operator interface {
	Apply(ctx context.Context, dst, src *block.Block) error
}

// OperatorFunc adapts a function to the Operator interface.
type OperatorFunc func(ctx context.Context, dst, src *block.Block) error

// Apply calls f(ctx, dst, src).
func (f OperatorFunc) Apply(ctx context.Context, dst, src *block.Block) error { return f(ctx, dst, src) }

// VectorStore keeps Lanczos basis vectors out of the solver's working set.
//
// Store persists the columns of b as basis vectors first, first+1, ...;
// Retrieve fills dst with the vectors previously stored at first, first+1, ...
// Positions are 0-based and a later Store to the same position overwrites it.
// Retrieve of a position never stored is an error.
type VectorStore interface {
	Store(ctx context.Context, first int, b *block.Block) error
	Retrieve(ctx context.Context, first int, dst *block.Block) error
}

// Input carries the optional caller-supplied state of a solve.
//
// Start, when set, is the n×BlockSize starting block; zero columns are
// replaced by random vectors. Values, Residuals and Vectors describe eigenpairs
// already known (for example from a Checkpoint); the values are true
// eigenvalues regardless of the search direction.
type Input struct {
	Start     *block.Block
	Values    []float64
	Residuals []float64
	Vectors   *block.Block
}

// Status tells how a solve ended.
type Status int

const (
	// StatusConverged: every wanted eigenpair was accepted.
	StatusConverged Status = iota

	// StatusBudgetExceeded: the operator-call budget ran out with eigenvalues
	// still outstanding; Report.Checkpoint resumes the solve.
	StatusBudgetExceeded

	// StatusOrthogonalityLoss: a Lanczos block lost orthogonality against a good
	// Ritz vector beyond repair and the step was abandoned. The returned pairs
	// are valid; the solve may be repeated from the Checkpoint.
	StatusOrthogonalityLoss
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusBudgetExceeded:
		return "budget_exceeded"
	case StatusOrthogonalityLoss:
		return "orthogonality_loss"
	default:
		return "unknown"
	}
}

// Eigenpair is one accepted eigenvalue with its vector and error estimates.
type Eigenpair struct {
	Value          float64   // Rayleigh quotient with the true operator
	Residual       float64   // ‖A·x − Value·x‖, a bound on the eigenvalue error
	ValueAccuracy  float64   // Residual²/gap, a sharper eigenvalue error estimate (0 when the gap is unknown)
	VectorAccuracy float64   // Residual/gap, an estimate of the angle to the true eigenvector
	Vector         []float64 // unit eigenvector of length n
}

// Report is the outcome of a solve.
//
// Pairs are ordered most wanted first: ascending values when the smallest
// eigenvalues were requested, descending values when the largest were.
type Report struct {
	Pairs         []Eigenpair
	OperatorCalls int     // may exceed the budget by the calls of one step and the post-processing
	Status        Status
	Boundary      float64 // estimate of the first unwanted eigenvalue (delta)
	Checkpoint    *Checkpoint
}

// Checkpoint is the resumable state of an interrupted solve.
type Checkpoint struct {
	Start     *block.Block // restart block, n×BlockSize
	Values    []float64    // accepted eigenvalues so far
	Residuals []float64
	Vectors   *block.Block // nil when nothing was accepted
}

// Input returns the Input that continues the solve.
func (c *Checkpoint) Input() Input {
	in := Input{Start: c.Start.Clone()}
	if len(c.Values) > 0 {
		in.Values = append([]float64(nil), c.Values...)
		in.Residuals = append([]float64(nil), c.Residuals...)
		in.Vectors = c.Vectors.Clone()
	}

	return in
}
