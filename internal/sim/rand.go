package sim

import (
	"math/rand/v2"
	"time"
)

// NewRand returns the generator a Simulation draws from. A zero seed picks
// one from the clock; any other seed makes runs reproducible.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
