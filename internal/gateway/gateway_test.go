package gateway

import (
	"context"
	"strings"
	"testing"

	"github.com/rdwj/vectorgateway/internal/embedding"
	"github.com/rdwj/vectorgateway/internal/gwerr"
	"github.com/rdwj/vectorgateway/internal/logging"
	"github.com/rdwj/vectorgateway/internal/rerank"
	"github.com/rdwj/vectorgateway/internal/store"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns a fixed vector per text, keyed by a caller-supplied
// lookup so tests can control what a query embeds to versus what a
// document embeds to.
type fakeEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, _ embedding.Options) (embedding.Result, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = make([]float32, f.dim)
	}
	return embedding.Result{Vectors: out, Model: "fake"}, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

func newTestPipeline(t *testing.T, emb *fakeEmbedder) *Pipeline {
	t.Helper()
	log := logging.New(logging.LevelOff)
	return New(Config{
		Embedder:          emb,
		Reranker:          rerank.PassthroughReranker{},
		Store:             store.NewMemoryStore(0),
		Log:               log,
		DefaultCollection: "docs",
	})
}

func TestUpsertThenSearchRoundTrip(t *testing.T) {
	emb := &fakeEmbedder{dim: 3, vectors: map[string][]float32{
		"cats are great":  {1, 0, 0},
		"dogs are great":  {0, 1, 0},
		"cat query":       {1, 0, 0},
	}}
	p := newTestPipeline(t, emb)
	ctx := context.Background()

	upsertResp, err := p.Upsert(ctx, UpsertRequest{
		Documents: []UpsertDocument{
			{Text: "cats are great", FileName: "a.txt"},
			{Text: "dogs are great", FileName: "b.txt"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, upsertResp.Inserted)
	require.Equal(t, int64(2), upsertResp.Total)
	require.Equal(t, "memory", upsertResp.Backend)
	require.Equal(t, "docs", upsertResp.Collection)

	searchResp, err := p.Search(ctx, SearchRequest{Query: "cat query", TopK: 1})
	require.NoError(t, err)
	require.Equal(t, 1, searchResp.Count)
	require.Equal(t, "a.txt", searchResp.Hits[0].Metadata["file_name"])
}

func TestSearchUnknownCollectionIsNotFound(t *testing.T) {
	emb := &fakeEmbedder{dim: 3}
	p := newTestPipeline(t, emb)
	_, err := p.Search(context.Background(), SearchRequest{Query: "x", TopK: 3, Collection: "missing"})
	require.Error(t, err)
	var nf *gwerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSearchAppliesFilePatternFilter(t *testing.T) {
	emb := &fakeEmbedder{dim: 3, vectors: map[string][]float32{
		"alpha": {1, 0, 0},
		"beta":  {1, 0, 0},
		"query": {1, 0, 0},
	}}
	p := newTestPipeline(t, emb)
	ctx := context.Background()

	_, err := p.Upsert(ctx, UpsertRequest{Documents: []UpsertDocument{
		{Text: "alpha", FileName: "report.pdf"},
		{Text: "beta", FileName: "notes.md"},
	}})
	require.NoError(t, err)

	resp, err := p.Search(ctx, SearchRequest{
		Query: "query", TopK: 5,
		Filters: &SearchFilters{FilePattern: "*.pdf"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	require.Equal(t, "report.pdf", resp.Hits[0].Metadata["file_name"])
}

func TestSearchExpandsContextWindow(t *testing.T) {
	emb := &fakeEmbedder{dim: 3, vectors: map[string][]float32{
		"c0":    {0, 1, 0},
		"c1":    {1, 0, 0},
		"c2":    {0, 0, 1},
		"query": {1, 0, 0},
	}}
	p := newTestPipeline(t, emb)
	ctx := context.Background()

	doc := UpsertDocument{Text: "c1", FileName: "f.txt"}
	doc.SetChunkIndex(1)
	neighborBefore := UpsertDocument{Text: "c0", FileName: "f.txt"}
	neighborBefore.SetChunkIndex(0)
	neighborAfter := UpsertDocument{Text: "c2", FileName: "f.txt"}
	neighborAfter.SetChunkIndex(2)

	_, err := p.Upsert(ctx, UpsertRequest{Documents: []UpsertDocument{neighborBefore, doc, neighborAfter}})
	require.NoError(t, err)

	resp, err := p.Search(ctx, SearchRequest{Query: "query", TopK: 1, ContextWindow: 1})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	require.Equal(t, "c1", resp.Hits[0].Text)
	require.Len(t, resp.Hits[0].SurroundingChunks, 2)
}

func TestUpsertDefaultsMissingFields(t *testing.T) {
	emb := &fakeEmbedder{dim: 2, vectors: map[string][]float32{"only": {1, 1}}}
	p := newTestPipeline(t, emb)

	resp, err := p.Upsert(context.Background(), UpsertRequest{
		Documents: []UpsertDocument{{Text: "only"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Inserted)

	searchResp, err := p.Search(context.Background(), SearchRequest{Query: "only", TopK: 1})
	require.NoError(t, err)
	require.Len(t, searchResp.Hits, 1)
	hit := searchResp.Hits[0]
	require.True(t, strings.HasPrefix(hit.DocID, "doc-0-"))
	require.Equal(t, -1, hit.Metadata["page"])
	require.Equal(t, 0, hit.Metadata["chunk_index"])
	require.Equal(t, "", hit.Metadata["mime_type"])
}

func TestUpsertEnforcesMemoryCapacity(t *testing.T) {
	emb := &fakeEmbedder{dim: 2, vectors: map[string][]float32{"a": {1, 1}, "b": {1, 1}}}
	p := New(Config{
		Embedder:          emb,
		Reranker:          rerank.PassthroughReranker{},
		Store:             store.NewMemoryStore(1),
		Log:               logging.New(logging.LevelOff),
		DefaultCollection: "docs",
	})

	_, err := p.Upsert(context.Background(), UpsertRequest{
		Documents: []UpsertDocument{{Text: "a"}, {Text: "b"}},
	})
	require.Error(t, err)
}
