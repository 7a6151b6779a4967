// Package chunkid synthesizes chunk_id values for documents the caller
// didn't supply one for. Grounded on
// original_source/services/vector_gateway/app.py's upsert handler,
// which falls back to f"doc-{idx}-{now_ts}".
package chunkid

import (
	"fmt"

	"github.com/google/uuid"
)

// Synthesize returns docID if non-empty, else a deterministic
// "doc-<index>-<createdAtTS>" ID matching the original gateway's
// fallback format.
func Synthesize(docID string, index int, createdAtTS int64) string {
	if docID != "" {
		return docID
	}
	return fmt.Sprintf("doc-%d-%d", index, createdAtTS)
}

// New returns a random v4 UUID, used when a caller-agnostic unique ID is
// needed outside the document-upsert path (e.g. request IDs).
func New() string {
	return uuid.NewString()
}
