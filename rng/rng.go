// Package rng - deterministic random vectors for the eigensolver.
//
// Goals:
//   - Determinism: same seed ⇒ identical sequences on every platform.
//   - Encapsulation: a Source is an explicit object; there is no package-level stream.
//   - Safety: no panics, no logging, no allocations in Fill.
//
// The generator is Knuth's linear congruential method on a 32-bit word
// (m = 2^31, multiplier ≈ m·π/32, increment ≈ m·(1/2 − √3/6)), the
// recurrence of the classic URAND routine, so start vectors are reproducible
// bit for bit across platforms.
//
// Concurrency:
//   - A Source is NOT goroutine-safe. Give each solve its own Source.
package rng

import "math"

// Word-size constants of the recurrence (32-bit signed arithmetic).
const (
	halfModulus int32 = 1 << 30 // m2: half of the 2^31 modulus
)

var (
	multiplier int32   // ia: ≡ 5 (mod 8), close to m·atan(1)/4
	increment  int32   // ic: odd, close to m·(1/2 − √3/6)
	wrapLimit  int32   // mic: largest state that can take the increment without overflow
	scale      float32 // s: converts state to (0,1)
)

func init() {
	var halfm float64
	halfm = float64(halfModulus)
	multiplier = int32(halfm*math.Atan(1)/8)<<3 + 5
	increment = int32(halfm*(0.5-math.Sqrt(3)/6))<<1 + 1
	wrapLimit = halfModulus - increment + halfModulus
	scale = float32(0.5) / float32(halfModulus)
}

// Source is a deterministic uniform generator with explicit 32-bit state.
type Source struct {
	state int32 // iy: current congruential state
}

// New returns a Source seeded with seed. Any seed is valid, including 0.
// Complexity: O(1).
func New(seed int32) *Source {
	return &Source{state: seed}
}

// Seed returns the current internal state. Feeding it back into New continues
// the same sequence.
func (s *Source) Seed() int32 {
	return s.state
}

// Reset restarts the stream at seed.
func (s *Source) Reset(seed int32) {
	s.state = seed
}

// Uniform returns the next value in (0, 1).
// Complexity: O(1).
func (s *Source) Uniform() float64 {
	var iy int32
	iy = s.state * multiplier // wraps like a 32-bit Fortran INTEGER
	if iy > wrapLimit {
		iy = iy - halfModulus - halfModulus
	}
	iy += increment
	if iy/2 > halfModulus {
		iy = iy - halfModulus - halfModulus
	}
	if iy < 0 {
		iy = iy + halfModulus + halfModulus
	}
	s.state = iy

	return float64(float32(iy) * scale)
}

// Fill overwrites x with values uniform in (−0.5, 0.5).
// Complexity: O(len(x)).
func (s *Source) Fill(x []float64) {
	var i int
	for i = range x {
		x[i] = s.Uniform() - 0.5
	}
}
