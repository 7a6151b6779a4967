// Package gateway orchestrates the query pipeline (C6) and upsert
// pipeline (C7) over the C3 (embedding), C4 (rerank), and C5 (store)
// interfaces. It has no HTTP concerns; internal/httpapi binds these
// types to gin handlers. Grounded on retriever.go's embed→retrieve→
// filter orchestration shape and
// original_source/services/vector_gateway/app.py's /search and /upsert
// handlers.
package gateway

// SearchFilters narrows hybrid-search results by provenance metadata.
// Applied in order file_name -> file_pattern -> mime_type, AND-composed.
type SearchFilters struct {
	FileName    string
	FilePattern string
	MimeType    string
}

// SearchRequest is the C6 input.
type SearchRequest struct {
	Query          string
	Collection     string
	TopK           int
	ContextWindow  int
	Filters        *SearchFilters
	Model          string
}

// SurroundingChunk is one neighbor attached to a hit for context
// expansion.
type SurroundingChunk struct {
	ChunkIndex int
	Text       string
	Page       int
}

// SearchHit is one ranked result.
type SearchHit struct {
	DocID             string
	Text              string
	Score             float64
	Metadata          map[string]interface{}
	SurroundingChunks []SurroundingChunk
}

// SearchResponse is the C6 output.
type SearchResponse struct {
	Hits       []SearchHit
	Count      int
	LatencyMs  int64
	Backend    string
	Collection string
	Reranked   bool
}

// UpsertDocument is one input document to C7.
type UpsertDocument struct {
	DocID       string
	Text        string
	FileName    string
	FilePath    string
	Page        int
	Section     string
	MimeType    string
	CreatedAtTS int64
	ChunkIndex  int
	hasPage     bool
	hasCreated  bool
	hasIndex    bool
}

// SetPage/SetCreatedAtTS/SetChunkIndex record that the caller supplied
// the field explicitly, so defaulting (page=-1, created_at_ts=now,
// chunk_index=list position) only fires for genuinely absent values.
func (d *UpsertDocument) SetPage(v int)          { d.Page = v; d.hasPage = true }
func (d *UpsertDocument) SetCreatedAtTS(v int64) { d.CreatedAtTS = v; d.hasCreated = true }
func (d *UpsertDocument) SetChunkIndex(v int)    { d.ChunkIndex = v; d.hasIndex = true }

// UpsertRequest is the C7 input.
type UpsertRequest struct {
	Documents  []UpsertDocument
	Collection string
	Model      string
}

// UpsertResponse is the C7 output. Total is -1 when the backend (e.g.
// Milvus) cannot report a precise running total cheaply.
type UpsertResponse struct {
	Inserted   int
	Total      int64
	Backend    string
	Collection string
}
