package challenge

import (
	"math/rand"
)

// SplitShots partitions the configured shots into train and test with a
// seeded shuffle; the same seed always yields the same partition. The
// returned refs carry each shot's position in the shuffled overall ordering:
// train positions 0..TrainSize-1, test positions TrainSize and up.
func SplitShots(cfg Config) (train, test []ShotRef) {
	ids := append([]int64{}, cfg.ShotIDs...)
	rng := rand.New(rand.NewSource(cfg.Seed))
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	refs := make([]ShotRef, len(ids))
	for i, id := range ids {
		refs[i] = ShotRef{ID: id, Index: i}
	}
	return refs[:cfg.TrainSize], refs[cfg.TrainSize : cfg.TrainSize+cfg.TestSize]
}
