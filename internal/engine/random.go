package engine

import (
	"math/rand/v2"
	"time"
)

// RandomSource is the randomness the simulation draws from.
// *rand.Rand from math/rand/v2 satisfies it; tests script it.
type RandomSource interface {
	Float64() float64 // [0,1)
	IntN(n int) int   // [0,n)
}

// NewRandom returns a time-seeded PCG source. Not safe for concurrent use;
// the Engine only draws under its lock.
func NewRandom() RandomSource {
	return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
}
