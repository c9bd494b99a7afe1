// SPDX-License-Identifier: MIT
// Package store: sentinel error set.
// Every backend wraps these with the method and basis position so callers
// can match them via errors.Is.

package store

import "errors"

var (
	// ErrNotStored indicates a Retrieve of a basis position never stored.
	ErrNotStored = errors.New("store: basis vector not stored")

	// ErrLengthMismatch indicates a stored vector whose length differs from
	// the destination column.
	ErrLengthMismatch = errors.New("store: vector length mismatch")

	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("store: closed")

	// ErrCorrupt indicates an encoded vector that cannot be decoded.
	ErrCorrupt = errors.New("store: corrupt record")

	// ErrUnknownCodec indicates a Codec value outside the defined set.
	ErrUnknownCodec = errors.New("store: unknown codec")
)
