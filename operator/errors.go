// SPDX-License-Identifier: MIT
// Package: laso/operator
//
// errors.go — sentinel errors for the operator package.
//
// Error policy:
//   • Only package-level sentinels are exposed; callers branch with errors.Is.
//   • Implementations attach method context with %w.
//   • Apply never panics on a shape mismatch; option constructors panic on
//     meaningless arguments.

package operator

import "errors"

// ErrDimensionMismatch indicates a block whose row count differs from the
// operator order, or dst and src blocks of different shapes.
var ErrDimensionMismatch = errors.New("operator: dimension mismatch")

// ErrTooSmall indicates a size parameter below the constructor's minimum.
var ErrTooSmall = errors.New("operator: parameter too small")

// ErrIndexOutOfRange indicates a sparse entry outside the n×n matrix.
var ErrIndexOutOfRange = errors.New("operator: entry index out of range")
