package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShotsReproducible(t *testing.T) {
	cfg := DefaultConfig()
	train1, test1 := SplitShots(cfg)
	train2, test2 := SplitShots(cfg)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
}

func TestSplitShotsPartition(t *testing.T) {
	cfg := DefaultConfig()
	train, test := SplitShots(cfg)
	require.Len(t, train, cfg.TrainSize)
	require.Len(t, test, cfg.TestSize)

	// indices are positions in the shuffled overall ordering
	seen := make(map[int64]bool)
	for i, r := range train {
		assert.Equal(t, i, r.Index)
		seen[r.ID] = true
	}
	for i, r := range test {
		assert.Equal(t, cfg.TrainSize+i, r.Index)
		seen[r.ID] = true
	}

	// every configured shot lands in exactly one split
	require.Len(t, seen, len(cfg.ShotIDs))
	for _, id := range cfg.ShotIDs {
		assert.True(t, seen[id], "shot %d missing", id)
	}
}
