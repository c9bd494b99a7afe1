// SPDX-License-Identifier: MIT
// Package band: sentinel error set.
// Numerical near-singularities (tiny pivots) are never errors here; the
// factorization clamps them to a signed tolerance. Errors are reserved for
// shape misuse and for an iteration that fails to settle within its cap.

package band

import "errors"

var (
	// ErrBadShape is returned for a non-positive order or band width.
	ErrBadShape = errors.New("band: invalid shape")

	// ErrOutOfRange indicates an eigenvalue index range or order outside the matrix.
	ErrOutOfRange = errors.New("band: index out of range")

	// ErrDimensionMismatch indicates that the eigenvector or eigenvalue storage
	// is too small for the requested range.
	ErrDimensionMismatch = errors.New("band: dimension mismatch")

	// ErrNoConvergence is returned when an eigenvalue bracket does not shrink
	// within the per-eigenvalue shift budget.
	ErrNoConvergence = errors.New("band: eigenvalue iteration did not converge")
)
