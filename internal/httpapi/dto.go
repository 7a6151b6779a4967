// Package httpapi binds the gateway package's pipeline (C6/C7) and the
// store package's collection listing/stats to gin HTTP handlers: request
// validation, auth, error-to-status mapping, and structured per-request
// logging (C8 in SPEC_FULL.md). Grounded on the gin route/handler shape
// used by other_examples' unified-rag-service main.go and on
// original_source/services/vector_gateway/app.py's Pydantic request/
// response models, whose field names and nesting these DTOs mirror
// exactly (metadata nested under upsert documents, filters nested under
// search).
package httpapi

// upsertDocumentDTO mirrors app.py's UpsertDocument: text plus a nested,
// fully optional metadata object. hasPage/hasCreated/hasIndex on the
// gateway.UpsertDocument this converts to are derived from whether the
// corresponding Metadata field came through as non-nil here, not from
// Go's zero-value ambiguity.
type upsertDocumentDTO struct {
	DocID    string               `json:"doc_id,omitempty"`
	Text     string               `json:"text" binding:"required"`
	Metadata *upsertMetadataDTO   `json:"metadata,omitempty"`
}

type upsertMetadataDTO struct {
	FileName    string `json:"file_name,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	Page        *int   `json:"page,omitempty"`
	Section     string `json:"section,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	CreatedAtTS *int64 `json:"created_at_ts,omitempty"`
	ChunkIndex  *int   `json:"chunk_index,omitempty"`
}

// upsertRequestDTO mirrors app.py's UpsertRequest.
type upsertRequestDTO struct {
	Documents  []upsertDocumentDTO `json:"documents" binding:"required,min=1,dive"`
	Collection string              `json:"collection,omitempty"`
	Model      string              `json:"model,omitempty"`
}

type upsertResponseDTO struct {
	Inserted   int    `json:"inserted"`
	Total      int64  `json:"total"`
	Backend    string `json:"backend"`
	Collection string `json:"collection"`
}

// searchFiltersDTO mirrors app.py's SearchFilters.
type searchFiltersDTO struct {
	FileName    string `json:"file_name,omitempty"`
	FilePattern string `json:"file_pattern,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

// searchRequestDTO mirrors app.py's SearchRequest, including its
// top_k/context_window range defaults and bounds.
type searchRequestDTO struct {
	Query         string            `json:"query" binding:"required"`
	Collection    string            `json:"collection,omitempty"`
	TopK          int               `json:"top_k,omitempty" binding:"omitempty,min=1,max=100"`
	ContextWindow int               `json:"context_window,omitempty" binding:"omitempty,min=0,max=10"`
	Filters       *searchFiltersDTO `json:"filters,omitempty"`
	Model         string            `json:"model,omitempty"`
}

type surroundingChunkDTO struct {
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	Page       int    `json:"page"`
}

type searchHitDTO struct {
	DocID             string                 `json:"doc_id"`
	Text              string                 `json:"text"`
	Score             float64                `json:"score"`
	Metadata          map[string]interface{} `json:"metadata"`
	SurroundingChunks []surroundingChunkDTO  `json:"surrounding_chunks"`
}

type searchResponseDTO struct {
	Hits       []searchHitDTO `json:"hits"`
	Count      int            `json:"count"`
	LatencyMs  int64          `json:"latency_ms"`
	Backend    string         `json:"backend"`
	Collection string         `json:"collection"`
	Reranked   bool           `json:"reranked"`
}

type healthResponseDTO struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Count   int64  `json:"count"`
}

type collectionsResponseDTO struct {
	Collections []string `json:"collections"`
	Count       int      `json:"count"`
}

type collectionStatsDTO struct {
	Name      string   `json:"name"`
	RowCount  int64    `json:"row_count"`
	FileNames []string `json:"file_names"`
	MimeTypes []string `json:"mime_types"`
}

type collectionStatsResponseDTO struct {
	Stats collectionStatsDTO `json:"stats"`
}

// errorResponseDTO is the uniform 4xx/5xx body: {detail: "..."}.
type errorResponseDTO struct {
	Detail string `json:"detail"`
}
