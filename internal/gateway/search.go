package gateway

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rdwj/vectorgateway/internal/embedding"
	"github.com/rdwj/vectorgateway/internal/gwerr"
	"github.com/rdwj/vectorgateway/internal/rerank"
	"github.com/rdwj/vectorgateway/internal/store"
)

// expandWorkers bounds how many NeighborChunks lookups run concurrently
// per request. Grounded on concurrentloader.go's goroutine-per-item +
// WaitGroup + result-channel fan-out shape, adapted to a fixed worker
// count since a request's hit count is already small and bounded by
// top_k.
const expandWorkers = 4

// Search runs the C6 query pipeline: resolve collection, embed the
// query, hybrid-retrieve, filter, rerank (gracefully degrading to
// passthrough order on any rerank failure), truncate to top_k, and
// expand context windows. Grounded on
// original_source/services/vector_gateway/app.py's /search handler.
func (p *Pipeline) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	start := time.Now()
	collection := p.resolveCollection(req.Collection)

	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}

	// Embedded: embed the query text as a search_query vector.
	embedded, err := p.Embedder.Embed(ctx, []string{req.Query}, embedding.Options{
		Model:         req.Model,
		PreferService: true,
		InputType:     embedding.InputTypeQuery,
	})
	if err != nil {
		return SearchResponse{}, gwerr.NewRemote("embed", err)
	}
	if len(embedded.Vectors) != 1 {
		return SearchResponse{}, gwerr.NewFormat("embed", "expected 1 vector, got %d", len(embedded.Vectors))
	}
	queryVector := embedded.Vectors[0]

	// Retrieved: hybrid dense+lexical search, overfetching to leave
	// enough candidates for filtering and reranking to work with.
	overfetch := topK * 2
	if req.Filters != nil {
		if wide := topK * 4; wide > overfetch {
			overfetch = wide
		}
		if overfetch < 50 {
			overfetch = 50
		}
	}
	hits, err := p.Store.HybridSearch(ctx, collection, queryVector, req.Query, topK, overfetch, p.RRFK)
	if err != nil {
		return SearchResponse{}, gwerr.NewRemote("store", err)
	}

	// Filtered: file_name -> file_pattern -> mime_type, AND-composed.
	hits = applyFilters(hits, req.Filters)

	// Reranked: never fatal. A rerank failure (or a reranker that can't
	// be reached) falls back to the filtered hit order unchanged. The
	// passthrough provider counts as "no rerank happened" too, since it's
	// the disabled-reranker stand-in, not a real relevance pass.
	_, isPassthrough := p.Reranker.(rerank.PassthroughReranker)
	reranked := false
	if len(hits) > 0 && !isPassthrough {
		texts := make([]string, len(hits))
		for i, h := range hits {
			texts[i] = h.Text
		}
		result, rerr := p.Reranker.Rerank(ctx, req.Query, texts, topK)
		if rerr == nil && len(result.Indices) > 0 {
			hits = reorder(hits, result.Indices)
			reranked = true
		} else if rerr != nil {
			p.Log.Warn("rerank failed, falling back to retrieval order", "error", rerr, "collection", collection)
		}
	}

	// Truncate to top_k.
	if len(hits) > topK {
		hits = hits[:topK]
	}

	// Expanded: attach surrounding chunks per hit when requested.
	surrounding := make([][]store.Chunk, len(hits))
	if req.ContextWindow > 0 {
		surrounding = p.expandAll(ctx, collection, hits, req.ContextWindow)
	}

	searchHits := make([]SearchHit, len(hits))
	for i, h := range hits {
		searchHits[i] = SearchHit{
			DocID: h.ChunkID,
			Text:  h.Text,
			Score: h.Score,
			Metadata: map[string]interface{}{
				"file_name":     h.FileName,
				"file_path":     h.FilePath,
				"page":          h.Page,
				"section":       h.Section,
				"mime_type":     h.MimeType,
				"chunk_index":   h.ChunkIndex,
				"created_at_ts": h.CreatedAtTS,
				"distance":      h.Distance,
			},
			SurroundingChunks: toSurrounding(surrounding[i]),
		}
	}

	return SearchResponse{
		Hits:       searchHits,
		Count:      len(searchHits),
		LatencyMs:  time.Since(start).Milliseconds(),
		Backend:    p.Store.Name(),
		Collection: collection,
		Reranked:   reranked,
	}, nil
}

// reorder applies a rerank permutation (indices into hits, descending
// relevance) to hits, dropping any out-of-range index defensively rather
// than panicking on a malformed provider response.
func reorder(hits []store.Chunk, indices []int) []store.Chunk {
	out := make([]store.Chunk, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(hits) {
			out = append(out, hits[idx])
		}
	}
	if len(out) == 0 {
		return hits
	}
	return out
}

// expandAll fetches NeighborChunks for every hit concurrently, bounded
// by expandWorkers. A per-hit failure yields an empty neighbor list for
// that hit rather than failing the whole request.
func (p *Pipeline) expandAll(ctx context.Context, collection string, hits []store.Chunk, window int) [][]store.Chunk {
	out := make([][]store.Chunk, len(hits))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < expandWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				neighbors, err := p.Store.NeighborChunks(ctx, collection, hits[i].FileName, hits[i].ChunkIndex, window)
				if err != nil {
					p.Log.Warn("context expansion failed", "error", err, "file_name", hits[i].FileName)
					continue
				}
				out[i] = neighbors
			}
		}()
	}
	for i := range hits {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}

func toSurrounding(chunks []store.Chunk) []SurroundingChunk {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]SurroundingChunk, len(chunks))
	for i, c := range chunks {
		out[i] = SurroundingChunk{ChunkIndex: c.ChunkIndex, Text: c.Text, Page: c.Page}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out
}
