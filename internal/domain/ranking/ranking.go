// Package ranking turns win counts into a total order of candidates.
//
// The order is an approximation drawn from partial, win-only evidence. It is
// not checked against the individual comparison outcomes, so preference
// cycles are neither detected nor resolved; they show up as tied or
// near-tied win counts.
package ranking

import "slices"

// WinCounter exposes the win count for a candidate position.
type WinCounter interface {
	WinsOf(position int) int
}

// Standing is one row of a final ranking.
type Standing struct {
	Place    int `json:"place"` // 1-based
	Position int `json:"position"`
	Wins     int `json:"wins"`
}

// Rank returns positions 0..n-1 ordered by descending wins. Ties keep the
// original candidate order.
func Rank(n int, wins WinCounter) []int {
	if n <= 0 {
		return []int{}
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return wins.WinsOf(b) - wins.WinsOf(a)
	})
	return order
}

// Standings returns the ranking with places and win counts attached.
func Standings(n int, wins WinCounter) []Standing {
	order := Rank(n, wins)
	out := make([]Standing, len(order))
	for i, p := range order {
		out[i] = Standing{Place: i + 1, Position: p, Wins: wins.WinsOf(p)}
	}
	return out
}
