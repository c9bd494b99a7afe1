// SPDX-License-Identifier: MIT
// Package block: sentinel error set.
// All constructors and kernels return these sentinels (possibly wrapped with
// method context) and tests match them via errors.Is. Hot-path accessors that
// return slices (Col) follow slice semantics and panic on a bad index.

package block

import "errors"

var (
	// ErrBadShape is returned when a requested shape is invalid (rows<=0 or cols<=0).
	ErrBadShape = errors.New("block: invalid shape")

	// ErrOutOfRange indicates a row or column index outside the block.
	ErrOutOfRange = errors.New("block: index out of range")

	// ErrDimensionMismatch indicates incompatible operand shapes, e.g. copying a
	// 10×3 block into a 10×2 one, or an R factor that is not cols×cols.
	ErrDimensionMismatch = errors.New("block: dimension mismatch")
)
