package block

import (
	"fmt"
	"sort"
)

// SortPairs stably sorts keys ascending and applies the same permutation to
// res, extra and the columns of vecs. Any of res, extra and vecs may be nil;
// non-nil ones must have len(keys) entries (columns for vecs).
//
// Equal keys keep their relative order, which the eigensolver relies on when
// it partitions candidates into accepted (key −1) and rejected (key +1) runs.
// Complexity: O(k·log²k) swaps, each O(rows) for vecs.
func SortPairs(keys, res, extra []float64, vecs *Block) error {
	var k int
	k = len(keys)
	if (res != nil && len(res) != k) || (extra != nil && len(extra) != k) || (vecs != nil && vecs.cols != k) {
		return fmt.Errorf("SortPairs: payload lengths differ from %d keys: %w", k, ErrDimensionMismatch)
	}
	sort.Stable(pairSorter{keys: keys, res: res, extra: extra, vecs: vecs})

	return nil
}

// pairSorter moves every payload together with its key.
type pairSorter struct {
	keys, res, extra []float64
	vecs             *Block
}

func (p pairSorter) Len() int           { return len(p.keys) }
func (p pairSorter) Less(i, j int) bool { return p.keys[i] < p.keys[j] }
func (p pairSorter) Swap(i, j int) {
	p.keys[i], p.keys[j] = p.keys[j], p.keys[i]
	if p.res != nil {
		p.res[i], p.res[j] = p.res[j], p.res[i]
	}
	if p.extra != nil {
		p.extra[i], p.extra[j] = p.extra[j], p.extra[i]
	}
	if p.vecs != nil {
		p.vecs.SwapCols(i, j)
	}
}
