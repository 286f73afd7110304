// Package scoring records comparison wins per candidate position.
//
// Only wins are tracked. A Table is an approximation of preference strength,
// not a full pairwise matrix: there is no loss count and no way to undo a win.
package scoring

import "fmt"

// Table maps candidate positions in [0, size) to their win counts.
type Table struct {
	wins  map[int]int
	size  int
	total int
}

// NewTable creates an empty table for size candidates.
func NewTable(size int) *Table {
	if size < 0 {
		size = 0
	}
	return &Table{
		wins: make(map[int]int, size),
		size: size,
	}
}

// RecordWin adds exactly one win for position.
func (t *Table) RecordWin(position int) error {
	if position < 0 || position >= t.size {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrPositionOutOfRange, position, t.size)
	}
	t.wins[position]++
	t.total++
	return nil
}

// WinsOf returns the wins recorded for position, 0 if none.
func (t *Table) WinsOf(position int) int {
	return t.wins[position]
}

// Total returns the sum of all recorded wins.
func (t *Table) Total() int { return t.total }

// Size returns the number of candidate positions.
func (t *Table) Size() int { return t.size }

// Snapshot returns the win counts indexed by position.
func (t *Table) Snapshot() []int {
	out := make([]int, t.size)
	for p, w := range t.wins {
		out[p] = w
	}
	return out
}
