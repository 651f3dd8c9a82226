package sdb

import "math/rand"

// Rng is the single seeded random source an Engine and its subsystems must
// thread through for every non-deterministic decision (deck shuffles, role
// assignment, tie-breaking) so that (seed, action batches) replay is exact
//. Never consult math/rand's process-global source.
type Rng struct {
	r *rand.Rand
}

// NewRng creates a seeded Rng. Two Rngs built from the same seed and driven
// by the same call sequence produce identical outputs.
func NewRng(seed int64) *Rng {
	return &Rng{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a pseudo-random int in [0, n).
func (g *Rng) Intn(n int) int { return g.r.Intn(n) }

// Float64 returns a pseudo-random float64 in [0, 1).
func (g *Rng) Float64() float64 { return g.r.Float64() }

// ShuffleInts shuffles a slice of any element type in place (Fisher-Yates via rand.Shuffle).
func ShuffleInts[T any](g *Rng, s []T) {
	g.r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

// Choice returns a uniformly random element of a non-empty slice.
func Choice[T any](g *Rng, s []T) T {
	return s[g.Intn(len(s))]
}

// Perm returns a random permutation of [0, n).
func (g *Rng) Perm(n int) []int { return g.r.Perm(n) }
