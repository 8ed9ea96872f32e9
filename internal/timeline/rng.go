package timeline

import (
	"math/bits"
	"math/rand/v2"
)

// rng is the station's shuffle source. The draw sequence must be identical
// on every machine and Go release, so it uses the PCG-DXSM generator
// directly and does its own bounded reduction instead of relying on
// math/rand helpers whose algorithms are not frozen.
type rng struct {
	src rand.PCG
}

func newRNG(seed uint64) *rng {
	r := &rng{}
	r.src.Seed(seed, seed)
	return r
}

// intn returns a uniform value in [0, n) using Lemire's
// multiply-and-reject method. n must be positive.
func (r *rng) intn(n int) int {
	bound := uint64(n)
	hi, lo := bits.Mul64(r.src.Uint64(), bound)
	if lo < bound {
		thresh := -bound % bound
		for lo < thresh {
			hi, lo = bits.Mul64(r.src.Uint64(), bound)
		}
	}
	return int(hi)
}

func (r *rng) clone() *rng {
	c := *r
	return &c
}
