// Package rng provides the seeded random sequence used by arrangement.
//
// Every random decision Warren makes (arm lengths, pool order) is drawn from a
// single [Source] so a run is fully reproducible from its seed string. The
// generator is a PCG from math/rand/v2 keyed by the SHA-256 digest of the seed.
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
)

// Source is a deterministic pseudo-random stream.
// The zero value is not usable; create one with [New].
// Source is not safe for concurrent use.
type Source struct {
	seed string
	rng  *rand.Rand
}

// New returns a Source seeded from seed.
func New(seed string) *Source {
	s := &Source{}
	s.SetSeed(seed)
	return s
}

// SetSeed re-initializes the stream. Two sources given the same seed produce
// identical subsequent draws.
func (s *Source) SetSeed(seed string) {
	sum := sha256.Sum256([]byte(seed))
	hi := binary.BigEndian.Uint64(sum[0:8])
	lo := binary.BigEndian.Uint64(sum[8:16])
	s.seed = seed
	s.rng = rand.New(rand.NewPCG(hi, lo))
}

// Seed returns the seed the stream was last initialized with.
func (s *Source) Seed() string { return s.seed }

// Int returns an integer in [min, max] inclusive.
// Reversed bounds are swapped. A degenerate range returns min without
// consuming a draw, so fixed lengths never perturb the stream.
func (s *Source) Int(min, max int) int {
	if min > max {
		min, max = max, min
	}
	if min == max {
		return min
	}
	// The span is computed unsigned so ranges wider than MaxInt cannot
	// overflow. Spans that fit an int keep using IntN, which leaves the
	// stream of existing seeds unchanged.
	span := uint64(max) - uint64(min)
	if span < math.MaxInt {
		return min + s.rng.IntN(int(span)+1)
	}
	if span == math.MaxUint64 {
		return int(s.rng.Uint64())
	}
	return int(uint64(min) + s.rng.Uint64N(span+1))
}

// Shuffle returns a new slice holding the elements of in in a uniformly random
// order. The input is not modified.
func Shuffle[T any](s *Source, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Derive returns the seed used for retry attempt n of seed.
// Attempt 0 is the seed itself.
func Derive(seed string, attempt int) string {
	if attempt <= 0 {
		return seed
	}
	return fmt.Sprintf("%s#%d", seed, attempt)
}
