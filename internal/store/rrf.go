package store

import "sort"

// DefaultRRFK is the constant from the original Reciprocal Rank Fusion
// paper; it dampens the influence of a chunk's exact rank within each
// leg of the search.
const DefaultRRFK = 60

// FuseRRF combines dense and lexical result lists by Reciprocal Rank
// Fusion, keyed on ChunkID rather than a numeric row ID. Grounded on
// rag/reranker.go's RRFReranker, generalized from int64 SearchResult.ID
// to string chunk IDs per the fuse-on-chunk_id design note in
// SPEC_FULL.md §9. RRF only determines ordering: each Chunk keeps the
// normalized Score/Distance its originating leg already computed, since
// per SPEC_FULL.md §4.5/§4.6 the reported score is the distance
// normalization, not the fusion value.
func FuseRRF(dense, lexical []Chunk, k int) []Chunk {
	if k <= 0 {
		k = DefaultRRFK
	}

	rrfScores := make(map[string]float64)
	byID := make(map[string]Chunk)

	for rank, c := range dense {
		rrfScores[c.ChunkID] += 1.0 / (float64(rank+1) + float64(k))
		byID[c.ChunkID] = c
	}
	for rank, c := range lexical {
		rrfScores[c.ChunkID] += 1.0 / (float64(rank+1) + float64(k))
		if _, ok := byID[c.ChunkID]; !ok {
			byID[c.ChunkID] = c
		}
	}

	fused := make([]Chunk, 0, len(rrfScores))
	for id := range rrfScores {
		fused = append(fused, byID[id])
	}
	sort.SliceStable(fused, func(i, j int) bool { return rrfScores[fused[i].ChunkID] > rrfScores[fused[j].ChunkID] })
	return fused
}
