// Package randsrc isolates every random draw the simulation makes behind a
// small seedable interface.
//
// Two sessions built from the same seed consume draws in the same order and
// therefore produce identical transcripts. Tests that need to force a
// specific branch use Sequence instead of a seeded generator.
package randsrc

import "math/rand/v2"

// Source is the random-number contract used by the sampler, the response
// generator and the flash deck.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). n must be > 0.
	IntN(n int) int
}

// Rand is a seeded PCG-backed Source.
type Rand struct {
	seed int64
	r    *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed int64) *Rand {
	s := uint64(seed)
	return &Rand{seed: seed, r: rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

// Seed returns the seed the generator was created with.
func (r *Rand) Seed() int64 { return r.seed }

func (r *Rand) Float64() float64 { return r.r.Float64() }
func (r *Rand) IntN(n int) int   { return r.r.IntN(n) }

// Pick draws an index from weights using a cumulative-weight array and a
// single uniform draw. Non-positive weights are never selected unless every
// weight is non-positive, in which case the choice is uniform.
// Returns -1 for an empty slice.
func Pick(src Source, weights []float64) int {
	if len(weights) == 0 {
		return -1
	}

	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w > 0 {
			total += w
		}
		cumulative[i] = total
	}
	if total <= 0 {
		return src.IntN(len(weights))
	}

	target := src.Float64() * total
	for i, c := range cumulative {
		if target < c {
			return i
		}
	}
	// Float rounding can leave target == total; fall back to the last
	// positive weight.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return len(weights) - 1
}

// Uniform returns a value in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// Chance reports whether a draw falls under probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Shuffle permutes n elements in place (Fisher-Yates) using swap.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		swap(i, j)
	}
}

// Sequence is a deterministic Source that replays a fixed list of floats,
// cycling when exhausted. IntN maps the next float onto [0, n).
type Sequence struct {
	values []float64
	pos    int
}

// NewSequence creates a Sequence. With no values every draw returns 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

func (s *Sequence) IntN(n int) int {
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Draws returns how many values have been consumed.
func (s *Sequence) Draws() int { return s.pos }
