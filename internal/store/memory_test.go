package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUpsertAndStats(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "docs", 3))

	n, err := s.Upsert(ctx, "docs", []Chunk{
		{ChunkID: "a", Text: "cats are great pets", Vector: []float32{1, 0, 0}},
		{ChunkID: "b", Text: "dogs are loyal companions", Vector: []float32{0, 1, 0}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	stats, err := s.Stats(ctx, "docs")
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Count)
	require.True(t, stats.Exact)
}

func TestMemoryStoreUpsertRejectsOverCapacity(t *testing.T) {
	s := NewMemoryStore(1)
	ctx := context.Background()
	_, err := s.Upsert(ctx, "docs", []Chunk{
		{ChunkID: "a", Vector: []float32{1}},
		{ChunkID: "b", Vector: []float32{1}},
	})
	require.Error(t, err)
}

func TestMemoryStoreEnsureCollectionRejectsDimensionChange(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "docs", 3))
	require.NoError(t, s.EnsureCollection(ctx, "docs", 3))
	require.Error(t, s.EnsureCollection(ctx, "docs", 4))
}

func TestMemoryStoreUpsertRejectsDimensionMismatch(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "docs", 3))
	_, err := s.Upsert(ctx, "docs", []Chunk{{ChunkID: "a", Vector: []float32{1, 0}}})
	require.Error(t, err)
}

func TestMemoryStoreHybridSearchFusesDenseAndLexical(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "docs", 3))
	_, err := s.Upsert(ctx, "docs", []Chunk{
		{ChunkID: "a", Text: "cats are great pets", Vector: []float32{1, 0, 0}},
		{ChunkID: "b", Text: "dogs are loyal companions", Vector: []float32{0, 1, 0}},
		{ChunkID: "c", Text: "cats and dogs can be friends", Vector: []float32{0.7, 0.7, 0}},
	})
	require.NoError(t, err)

	hits, err := s.HybridSearch(ctx, "docs", []float32{1, 0, 0}, "cats", 2, 10, 60)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "a", hits[0].ChunkID)
}

func TestMemoryStoreHybridSearchUnknownCollection(t *testing.T) {
	s := NewMemoryStore(0)
	_, err := s.HybridSearch(context.Background(), "missing", []float32{1}, "q", 5, 0, 0)
	require.Error(t, err)
}

func TestMemoryStoreNeighborChunksExcludesSelfAndOutOfWindow(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "docs", 1))
	_, err := s.Upsert(ctx, "docs", []Chunk{
		{ChunkID: "c0", FileName: "f.txt", ChunkIndex: 0, Vector: []float32{1}},
		{ChunkID: "c1", FileName: "f.txt", ChunkIndex: 1, Vector: []float32{1}},
		{ChunkID: "c2", FileName: "f.txt", ChunkIndex: 2, Vector: []float32{1}},
		{ChunkID: "c5", FileName: "f.txt", ChunkIndex: 5, Vector: []float32{1}},
	})
	require.NoError(t, err)

	neighbors, err := s.NeighborChunks(ctx, "docs", "f.txt", 1, 1)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	require.Equal(t, "c0", neighbors[0].ChunkID)
	require.Equal(t, "c2", neighbors[1].ChunkID)
}
