// Package store implements the gateway's vector-store adapter (C5 in
// SPEC_FULL.md): collection CRUD, dense/lexical/hybrid search with RRF
// fusion, neighbor-chunk context expansion, and collection stats, behind
// a single Store interface with Milvus and in-memory backends. Grounded
// on rag/vector_interface.go's VectorDB contract, generalized from
// numeric SearchResult.ID to the gateway's string chunk_id.
package store

import "context"

// Chunk is a single retrievable unit: one embedded span of a source
// document plus the metadata needed for filtering, citation, and
// context-window expansion.
type Chunk struct {
	ChunkID     string
	Text        string
	FileName    string
	FilePath    string
	Section     string
	MimeType    string
	Page        int
	ChunkIndex  int
	CreatedAtTS int64
	Vector      []float32

	// Score is the normalized [0,1] relevance score assigned by the
	// search that produced this chunk. Distance is the raw backend
	// distance/relevance value the score was derived from, kept for
	// diagnostics.
	Score    float64
	Distance float64
}

// Stats summarizes a collection's current size and the distinct
// provenance values it holds. Count/FileNames/MimeTypes are computed
// exactly by the memory backend; Milvus reports Count from segment
// metadata and FileNames/MimeTypes from a bounded sample, so Exact is
// false there — see the Open Question decision in SPEC_FULL.md §9.
type Stats struct {
	Count     int64
	Exact     bool
	Dimension int
	FileNames []string
	MimeTypes []string
}

// Store is the uniform contract the gateway's query and upsert
// pipelines (C6, C7) use regardless of backend.
type Store interface {
	Name() string

	// EnsureCollection creates the collection if it does not exist,
	// never dropping existing data.
	EnsureCollection(ctx context.Context, collection string, dimension int) error

	// Upsert writes chunks to a collection, returning the number of
	// rows written. The Milvus backend appends, so a repeated chunk_id
	// adds a second row; the memory backend keys rows by chunk_id, so a
	// repeated chunk_id replaces the earlier row.
	Upsert(ctx context.Context, collection string, chunks []Chunk) (int, error)

	// HybridSearch returns the topK highest dense+lexical fused chunks
	// for queryVector/queryText. overfetch controls how many
	// candidates each leg of the search pulls before fusion; backends
	// that can't run a lexical leg fall back to dense-only.
	HybridSearch(ctx context.Context, collection string, queryVector []float32, queryText string, topK, overfetch, rrfK int) ([]Chunk, error)

	// NeighborChunks returns the chunks immediately surrounding
	// chunkIndex within fileName, excluding chunkIndex itself, for
	// context-window expansion.
	NeighborChunks(ctx context.Context, collection, fileName string, chunkIndex, window int) ([]Chunk, error)

	Stats(ctx context.Context, collection string) (Stats, error)

	// ListCollections returns the names of all collections currently
	// known to the backend.
	ListCollections(ctx context.Context) ([]string, error)
}
