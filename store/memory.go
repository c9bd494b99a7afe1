package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/katalvlaran/laso/block"
)

// Memory is a resident VectorStore backed by a map from basis position to a
// copy of the vector.
type Memory struct {
	mu   sync.RWMutex
	cols map[int][]float64
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{cols: make(map[int][]float64)}
}

// Store copies the columns of b to positions first, first+1, ...
// Complexity: O(rows·cols); slots of the same length are reused.
func (m *Memory) Store(_ context.Context, first int, b *block.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		c   int
		dst []float64
		ok  bool
	)
	for c = 0; c < b.Cols(); c++ {
		dst, ok = m.cols[first+c]
		if !ok || len(dst) != b.Rows() {
			dst = make([]float64, b.Rows())
			m.cols[first+c] = dst
		}
		copy(dst, b.Col(c))
	}

	return nil
}

// Retrieve copies positions first, first+1, ... into the columns of dst.
// Complexity: O(rows·cols).
func (m *Memory) Retrieve(_ context.Context, first int, dst *block.Block) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		c   int
		src []float64
		ok  bool
	)
	for c = 0; c < dst.Cols(); c++ {
		if src, ok = m.cols[first+c]; !ok {
			return fmt.Errorf("Memory.Retrieve(%d): %w", first+c, ErrNotStored)
		}
		if len(src) != dst.Rows() {
			return fmt.Errorf("Memory.Retrieve(%d): %d values into %d rows: %w", first+c, len(src), dst.Rows(), ErrLengthMismatch)
		}
		copy(dst.Col(c), src)
	}

	return nil
}

// Len returns the number of stored positions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.cols)
}

// Reset forgets every stored vector.
func (m *Memory) Reset() {
	m.mu.Lock()
	clear(m.cols)
	m.mu.Unlock()
}
