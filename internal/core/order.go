package core

import (
	"hash/fnv"
	"math/rand/v2"
	"slices"

	"dataset-destroyer/internal/config"
)

// DegradationOrder copies kinds and, when randomize is set, shuffles the copy.
// The result is always a permutation of kinds.
func DegradationOrder(kinds []config.DegradationKind, randomize bool, rng *rand.Rand) []config.DegradationKind {
	order := slices.Clone(kinds)
	if randomize {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}

// ImageRNG derives the random source for one image from the run seed and the
// image's path relative to the input root, so results do not depend on
// which worker picks the image up.
func ImageRNG(seed uint64, relPath string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(relPath))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}
