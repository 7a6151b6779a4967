package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuseRRFRanksDocumentsPresentInBothListsHighest(t *testing.T) {
	dense := []Chunk{{ChunkID: "x"}, {ChunkID: "y"}, {ChunkID: "z"}}
	lexical := []Chunk{{ChunkID: "z"}, {ChunkID: "x"}}

	fused := FuseRRF(dense, lexical, 60)
	require.Len(t, fused, 3)
	require.Equal(t, "x", fused[0].ChunkID)
}

func TestFuseRRFDefaultsKWhenNonPositive(t *testing.T) {
	dense := []Chunk{{ChunkID: "a", Score: 0.73, Distance: 0.27}}
	fused := FuseRRF(dense, nil, 0)
	require.Len(t, fused, 1)
	require.InDelta(t, 0.73, fused[0].Score, 1e-9)
	require.InDelta(t, 0.27, fused[0].Distance, 1e-9)

	// With k=60, b (dense rank 2, lexical rank 3) scores 1/62+1/63 and
	// beats a and x (1/61 each); with k=0 taken literally a or x would win.
	dense = []Chunk{{ChunkID: "a"}, {ChunkID: "b"}}
	lexical := []Chunk{{ChunkID: "x"}, {ChunkID: "y"}, {ChunkID: "b"}}
	fused = FuseRRF(dense, lexical, 0)
	require.Len(t, fused, 4)
	require.Equal(t, "b", fused[0].ChunkID)
}

func TestFuseRRFPreservesOriginalScoreNotFusionValue(t *testing.T) {
	dense := []Chunk{{ChunkID: "x", Score: 0.9}, {ChunkID: "y", Score: 0.5}}
	lexical := []Chunk{{ChunkID: "y", Score: 0.5}, {ChunkID: "x", Score: 0.9}}

	fused := FuseRRF(dense, lexical, 60)
	require.Len(t, fused, 2)
	for _, c := range fused {
		require.NotInDelta(t, 1.0/61.0, c.Score, 1e-9)
	}
}
