// Package content holds the ordered, finite content sequence a game module
// plays through: an immutable item list plus a monotonically advancing
// cursor.
package content

import (
	"math/rand"
	"time"
)

// Options controls sequence construction. With Shuffle set, one pseudo-random
// permutation is produced at construction; a non-zero Seed makes it
// reproducible.
type Options struct {
	Shuffle bool
	Seed    int64
}

type Provider[T any] struct {
	items  []T
	cursor int
}

// New copies items so later mutation of the caller's slice cannot leak in. An
// empty sequence is valid; callers must check Current's ok result.
func New[T any](items []T, opts Options) *Provider[T] {
	seq := make([]T, len(items))
	copy(seq, items)
	if opts.Shuffle {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
	}
	return &Provider[T]{items: seq}
}

// Current returns the item at the cursor, or ok=false on an empty sequence.
func (p *Provider[T]) Current() (T, bool) {
	if len(p.items) == 0 {
		var zero T
		return zero, false
	}
	return p.items[p.cursor], true
}

// Next advances the cursor by one. At the end of the sequence it is an
// idempotent no-op returning false; callers decide what exhaustion means.
func (p *Provider[T]) Next() bool {
	if p.cursor >= len(p.items)-1 {
		return false
	}
	p.cursor++
	return true
}

// Progress reports the 0-based cursor and the total fixed at construction.
func (p *Provider[T]) Progress() (index, total int) {
	return p.cursor, len(p.items)
}

// Reset moves the cursor back to the start without reshuffling.
func (p *Provider[T]) Reset() {
	p.cursor = 0
}
