package world

import (
	"hash/fnv"
	"math/rand"
)

// DefaultSeed seeds subsystem RNGs when the caller configures none.
const DefaultSeed = "lost-and-found"

// DeterministicSeedValue hashes a root seed and a subsystem label into a
// stable non-zero seed.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG builds an RNG whose stream depends only on the
// seed pair, so runs with the same seed replay the same spawns.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

func RandomFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.New(rand.NewSource(DeterministicSeedValue(DefaultSeed, "world"))).Float64()
	}
	return rng.Float64()
}
