package algorithms

import (
	"math/rand/v2"

	"dataset-destroyer/internal/config"
)

// sampleInt draws uniformly from [low, high], both bounds included.
func sampleInt(rng *rand.Rand, r config.IntRange) int {
	return r.Low + rng.IntN(r.High-r.Low+1)
}

// sampleFloat draws uniformly from [low, high).
func sampleFloat(rng *rand.Rand, r config.FloatRange) float64 {
	return r.Low + rng.Float64()*(r.High-r.Low)
}

// choose returns the first option, or a uniformly random one when randomize is set.
func choose[T any](rng *rand.Rand, randomize bool, options []T) T {
	if randomize {
		return options[rng.IntN(len(options))]
	}
	return options[0]
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
