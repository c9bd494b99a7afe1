// SPDX-License-Identifier: MIT
// Package lanczos: sentinel error set and the parameter bitmask error.
// Every message is prefixed with "lanczos: ..." so logs can be grepped.
// Callers match with errors.Is / errors.As; the solver never panics on user
// input. Budget exhaustion and loss of orthogonality are NOT errors: they are
// reported through Report.Status so the caller can resume.

package lanczos

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidParameters is matched by every *ParamError.
	ErrInvalidParameters = errors.New("lanczos: invalid parameters")

	// ErrDegenerateInput indicates that the supplied eigenvectors are zero or so
	// nearly dependent that orthonormalizing them cancelled more than 10% of
	// some vector's norm. No operator call has been made.
	ErrDegenerateInput = errors.New("lanczos: degenerate user-supplied eigenvectors")

	// ErrNilOperator indicates that Solve was called without an operator.
	ErrNilOperator = errors.New("lanczos: operator is nil")

	// ErrNilStore indicates that Solve was called without a vector store.
	ErrNilStore = errors.New("lanczos: vector store is nil")
)

// ParamBit names one violated constraint of the parameter check.
type ParamBit uint16

// Constraint bits. Their numeric values are stable and may be combined.
const (
	ParamOrder        ParamBit = 1 << iota // n < 6·BlockSize
	ParamDigits                            // Digits ≤ 0
	ParamVectorRows                        // known eigenvectors are not n rows long
	ParamKnownPairs                        // known values, residuals and vectors disagree in count
	ParamSubspace                          // MaxSubspace < 6·BlockSize
	ParamWanted                            // |Wanted| < max(1, known pairs)
	ParamStartBlock                        // starting block is not n×BlockSize
	ParamBudget                            // |Wanted| > MaxOperatorCalls
	ParamWantedRatio                       // |Wanted| ≥ MaxSubspace/2
	ParamBlockSize                         // BlockSize < 1
)

var paramNames = [...]string{
	"n < 6*block_size",
	"digits <= 0",
	"known vectors have wrong length",
	"known pair counts disagree",
	"max_subspace < 6*block_size",
	"wanted count below max(1, known pairs)",
	"start block shape",
	"wanted count exceeds max_operator_calls",
	"wanted count >= max_subspace/2",
	"block_size < 1",
}

// ParamError reports every violated constraint at once.
type ParamError struct {
	Code ParamBit // bitwise OR of the violated ParamBit values
}

// Has reports whether bit is set in the code.
func (e *ParamError) Has(bit ParamBit) bool { return e.Code&bit != 0 }

// Error lists the violated constraints.
func (e *ParamError) Error() string {
	var (
		parts []string
		i     int
	)
	for i = range paramNames {
		if e.Code&(1<<i) != 0 {
			parts = append(parts, paramNames[i])
		}
	}

	return fmt.Sprintf("lanczos: invalid parameters (code %d): %s", e.Code, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is(err, ErrInvalidParameters) match.
func (e *ParamError) Unwrap() error { return ErrInvalidParameters }
