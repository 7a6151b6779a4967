package gateway

import (
	"context"

	"github.com/rdwj/vectorgateway/internal/chunkid"
	"github.com/rdwj/vectorgateway/internal/embedding"
	"github.com/rdwj/vectorgateway/internal/gwerr"
	"github.com/rdwj/vectorgateway/internal/store"
)

// Upsert runs the C7 upsert pipeline: resolve collection, batch-embed
// every document's text in one call, ensure the collection exists at
// the embedded dimension, synthesize any missing doc_id, default the
// metadata fields callers didn't set, and write the chunks. Grounded on
// original_source/services/vector_gateway/app.py's /upsert handler: the
// Milvus branch reports Total=-1 (a precise running count isn't cheap
// there); the memory branch, which can, reports the exact post-upsert
// total.
func (p *Pipeline) Upsert(ctx context.Context, req UpsertRequest) (UpsertResponse, error) {
	collection := p.resolveCollection(req.Collection)

	texts := make([]string, len(req.Documents))
	for i, d := range req.Documents {
		texts[i] = d.Text
	}

	embedded, err := p.Embedder.Embed(ctx, texts, embedding.Options{
		Model:         req.Model,
		PreferService: true,
		InputType:     embedding.InputTypeDocument,
	})
	if err != nil {
		return UpsertResponse{}, gwerr.NewRemote("embed", err)
	}
	if len(embedded.Vectors) != len(req.Documents) {
		return UpsertResponse{}, gwerr.NewFormat("embed", "expected %d vectors, got %d", len(req.Documents), len(embedded.Vectors))
	}

	dimension := 0
	if len(embedded.Vectors) > 0 {
		dimension = len(embedded.Vectors[0])
	}
	if err := p.Store.EnsureCollection(ctx, collection, dimension); err != nil {
		return UpsertResponse{}, gwerr.NewRemote("store", err)
	}

	now := nowUnix()
	chunks := make([]store.Chunk, len(req.Documents))
	for i, d := range req.Documents {
		createdAt := d.CreatedAtTS
		if !d.hasCreated {
			createdAt = now
		}
		docID := chunkid.Synthesize(d.DocID, i, createdAt)

		page := d.Page
		if !d.hasPage {
			page = -1
		}
		chunkIndex := d.ChunkIndex
		if !d.hasIndex {
			chunkIndex = i
		}

		chunks[i] = store.Chunk{
			ChunkID:     docID,
			Text:        d.Text,
			FileName:    d.FileName,
			FilePath:    d.FilePath,
			Section:     d.Section,
			MimeType:    d.MimeType,
			Page:        page,
			ChunkIndex:  chunkIndex,
			CreatedAtTS: createdAt,
			Vector:      embedded.Vectors[i],
		}
	}

	inserted, err := p.Store.Upsert(ctx, collection, chunks)
	if err != nil {
		return UpsertResponse{}, err
	}

	total := int64(-1)
	if p.Store.Name() == "memory" {
		if stats, err := p.Store.Stats(ctx, collection); err == nil {
			total = stats.Count
		}
	}

	return UpsertResponse{
		Inserted:   inserted,
		Total:      total,
		Backend:    p.Store.Name(),
		Collection: collection,
	}, nil
}
