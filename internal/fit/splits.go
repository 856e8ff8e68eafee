package fit

import (
	"math/rand/v2"

	"github.com/fourbynine/fourinarow/internal/parse"
)

// GenerateSplits partitions observations into splitCount groups of sizes
// differing by at most one, assigning each observation's group id. With a
// single split the input order is preserved; otherwise the partition is a
// random shuffle dealt round-robin.
func GenerateSplits(obs []parse.Observation, splitCount int, rng *rand.Rand) [][]parse.Observation {
	if splitCount < 1 {
		splitCount = 1
	}
	indices := make([]int, len(obs))
	for i := range indices {
		indices[i] = i
	}
	if splitCount != 1 {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}
	groups := make([][]parse.Observation, splitCount)
	for i, idx := range indices {
		g := i % splitCount
		o := obs[idx]
		o.Group = g + 1
		groups[g] = append(groups[g], o)
	}
	return groups
}
