package domtest

import "github.com/domtestrun/domtest/internal/prng"

// SetRandomSeed reseeds the runtime's deterministic source, re-synchronizing
// both Math.random() inside the evaluator and any harness-side identifiers
// (download artifact ids) drawn from the same stream, per the reproducible-
// stream property every SetRandomSeed caller expects.
func (r *Runtime) SetRandomSeed(seed uint64) {
	r.rng.Seed(seed)
}

func newRNG(seed uint64) *prng.Source {
	return prng.New(seed)
}
