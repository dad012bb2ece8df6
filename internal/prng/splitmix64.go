// Package prng implements the deterministic random source spec.md §4.3
// requires for Math.random() and seeded synthetic identifiers: a seedable
// 64-bit generator whose stream is reproducible across runs given a seed
// (spec.md §8 property 8). This is hand-rolled because the spec mandates a
// *documented, reproducible* algorithm rather than Go's math/rand, whose
// stream is not guaranteed stable across releases — determinism here is a
// domain requirement, not a stdlib-avoidance exercise.
package prng

// Source is a SplitMix64 generator: Sebastiano Vigna's public-domain
// construction, also used to seed xoshiro-family generators. 64 bits of
// state, one multiply-xorshift mix per call.
type Source struct {
	state uint64
}

// New returns a Source seeded deterministically from seed.
func New(seed uint64) *Source {
	return &Source{state: seed}
}

// Seed reseeds the generator, discarding all prior state.
func (s *Source) Seed(seed uint64) {
	s.state = seed
}

// Uint64 returns the next 64-bit value in the stream.
func (s *Source) Uint64() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Float64 returns a value in [0, 1), matching Math.random()'s range, using
// the top 53 bits of a draw for full double precision.
func (s *Source) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// Read fills p with pseudo-random bytes drawn from the stream, implementing
// io.Reader so the source can seed other deterministic generators (e.g.
// uuid.NewRandomFromReader) without breaking the seed→stream contract.
func (s *Source) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		v := s.Uint64()
		for i := 0; i < 8 && n < len(p); i++ {
			p[n] = byte(v)
			v >>= 8
			n++
		}
	}
	return n, nil
}
