// Package pairing builds the comparison schedule for a ranking session.
//
// A schedule chains every candidate to its neighbour and adds a few
// lookahead comparisons for the first half of the candidates, then shuffles
// the result so presentation order does not follow candidate order.
package pairing

import (
	"math/rand/v2"
)

// Default schedule window constants.
const (
	minItems           = 2
	defaultLookaheadLo = 2 // first skip distance, inclusive
	defaultLookaheadHi = 5 // last skip distance, exclusive
)

// Pair is an unordered combination of two distinct candidate positions.
type Pair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Contains reports whether p is one of the two positions.
func (pr Pair) Contains(p int) bool {
	return pr.A == p || pr.B == p
}

// Other returns the position paired with p. The result is undefined if p is
// not part of the pair.
func (pr Pair) Other(p int) int {
	if pr.A == p {
		return pr.B
	}
	return pr.A
}

// Key returns the pair normalised to (min, max).
func (pr Pair) Key() [2]int {
	if pr.A > pr.B {
		return [2]int{pr.B, pr.A}
	}
	return [2]int{pr.A, pr.B}
}

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Option applies a configuration option to the generator.
type Option func(*generator)

// WithShuffler sets the random source used to order the schedule.
func WithShuffler(s Shuffler) Option {
	return func(g *generator) {
		if s != nil {
			g.shuffler = s
		}
	}
}

// WithLookahead overrides the lookahead skip window [lo, hi).
func WithLookahead(lo, hi int) Option {
	return func(g *generator) {
		if lo >= 2 && hi > lo {
			g.lookaheadLo = lo
			g.lookaheadHi = hi
		}
	}
}

type generator struct {
	shuffler    Shuffler
	lookaheadLo int
	lookaheadHi int
}

// Generate returns the shuffled comparison schedule for n candidates.
// It fails with ErrInsufficientItems when n < 2.
func Generate(n int, opts ...Option) ([]Pair, error) {
	if n < minItems {
		return nil, ErrInsufficientItems
	}
	g := &generator{
		shuffler:    globalShuffler{},
		lookaheadLo: defaultLookaheadLo,
		lookaheadHi: defaultLookaheadHi,
	}
	for _, opt := range opts {
		opt(g)
	}

	pairs := make([]Pair, 0, g.count(n))
	seen := make(map[[2]int]struct{}, cap(pairs))
	add := func(i, j int) {
		p := Pair{A: i, B: j}
		if _, dup := seen[p.Key()]; dup {
			return
		}
		seen[p.Key()] = struct{}{}
		pairs = append(pairs, p)
	}

	// Adjacency chain keeps the comparison graph connected.
	for i := 0; i < n-1; i++ {
		add(i, i+1)
	}
	for i := 0; i < n/2; i++ {
		for j := i + g.lookaheadLo; j < min(i+g.lookaheadHi, n); j++ {
			add(i, j)
		}
	}

	g.shuffler.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})
	return pairs, nil
}

// Count returns the number of pairs Generate yields for n candidates with
// the default window. It returns 0 when n < 2.
func Count(n int) int {
	g := generator{lookaheadLo: defaultLookaheadLo, lookaheadHi: defaultLookaheadHi}
	return g.count(n)
}

func (g generator) count(n int) int {
	if n < minItems {
		return 0
	}
	total := n - 1
	for i := 0; i < n/2; i++ {
		total += max(0, min(i+g.lookaheadHi, n)-(i+g.lookaheadLo))
	}
	return total
}
