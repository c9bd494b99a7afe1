// SPDX-License-Identifier: MIT
// Package: laso/store
//
// spill.go — out-of-core VectorStore over one append-only file.
//
// Contract:
//   • Every Store appends one record per column (see codec.go) at the end of
//     the file and points the position's index entry at it; the previous
//     record of an overwritten position becomes garbage until Reset.
//   • Only the index (offset and size per position) stays in memory.
//   • Close removes the file.
//
// Complexity:
//   • Store / Retrieve: one write / read syscall per column plus the codec.
//   • Memory: O(positions) for the index, O(n) scratch.

package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/katalvlaran/laso/block"
)

// extent locates one record in the spill file.
type extent struct {
	off  int64
	size int
}

// Spill is a file-backed VectorStore. Create it with NewSpill.
type Spill struct {
	mu      sync.Mutex
	f       *os.File
	codec   Codec
	end     int64
	index   map[int]extent
	rec     []byte // encoded record buffer
	scratch []byte // packed or decompressed vector
	closed  bool
}

// NewSpill creates a spill file in dir (os.TempDir when empty) whose records
// are compressed with codec.
func NewSpill(dir string, codec Codec) (*Spill, error) {
	if codec > CodecZstd {
		return nil, fmt.Errorf("store.NewSpill: %v: %w", codec, ErrUnknownCodec)
	}
	f, err := os.CreateTemp(dir, "laso-spill-*.bin")
	if err != nil {
		return nil, fmt.Errorf("store.NewSpill: %w", err)
	}

	return &Spill{f: f, codec: codec, index: make(map[int]extent)}, nil
}

// Path returns the name of the spill file.
func (s *Spill) Path() string { return s.f.Name() }

// Codec returns the codec records are written with.
func (s *Spill) Codec() Codec { return s.codec }

// Size returns the number of bytes written to the file so far.
func (s *Spill) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.end
}

// Store appends the columns of b as positions first, first+1, ...
func (s *Spill) Store(ctx context.Context, first int, b *block.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("Spill.Store(%d): %w", first, ErrClosed)
	}

	var (
		c   int
		n   int
		err error
	)
	for c = 0; c < b.Cols(); c++ {
		if s.rec, s.scratch, err = encodeRecord(s.rec[:0], s.scratch, b.Col(c), s.codec); err != nil {
			return fmt.Errorf("Spill.Store(%d): %w", first+c, err)
		}
		if n, err = s.f.WriteAt(s.rec, s.end); err != nil {
			return fmt.Errorf("Spill.Store(%d): write: %w", first+c, err)
		}
		s.index[first+c] = extent{off: s.end, size: n}
		s.end += int64(n)
	}

	return nil
}

// Retrieve reads positions first, first+1, ... into the columns of dst.
func (s *Spill) Retrieve(ctx context.Context, first int, dst *block.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("Spill.Retrieve(%d): %w", first, ErrClosed)
	}

	var (
		c   int
		e   extent
		ok  bool
		err error
	)
	for c = 0; c < dst.Cols(); c++ {
		if e, ok = s.index[first+c]; !ok {
			return fmt.Errorf("Spill.Retrieve(%d): %w", first+c, ErrNotStored)
		}
		s.rec = grow(s.rec, e.size)
		if _, err = s.f.ReadAt(s.rec, e.off); err != nil {
			return fmt.Errorf("Spill.Retrieve(%d): read: %w", first+c, err)
		}
		if s.scratch, err = decodeRecord(dst.Col(c), s.rec, s.scratch); err != nil {
			return fmt.Errorf("Spill.Retrieve(%d): %w", first+c, err)
		}
	}

	return nil
}

// Reset truncates the file and forgets every position.
func (s *Spill) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("Spill.Reset: %w", ErrClosed)
	}
	if err := s.f.Truncate(0); err != nil {
		return fmt.Errorf("Spill.Reset: %w", err)
	}
	s.end = 0
	clear(s.index)

	return nil
}

// Close closes and removes the spill file. Further calls return ErrClosed.
func (s *Spill) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	name := s.f.Name()
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("Spill.Close: %w", err)
	}
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("Spill.Close: %w", err)
	}

	return nil
}
