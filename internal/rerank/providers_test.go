package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPassthroughRerankerReturnsIdentityOrder(t *testing.T) {
	var r PassthroughReranker
	result, err := r.Rerank(context.Background(), "q", []string{"a", "b", "c"}, 0)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, result.Indices)
}

func TestCohereRerankerResortsByRelevanceScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := cohereRerankResponse{}
		resp.Results = append(resp.Results,
			struct {
				Index          int     `json:"index"`
				RelevanceScore float64 `json:"relevance_score"`
			}{Index: 1, RelevanceScore: 0.2},
			struct {
				Index          int     `json:"index"`
				RelevanceScore float64 `json:"relevance_score"`
			}{Index: 0, RelevanceScore: 0.9},
		)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	reranker := NewCohereReranker("key", srv.URL, "", srv.Client(), nil)
	result, err := reranker.Rerank(context.Background(), "query", []string{"doc0", "doc1"}, 0)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, result.Indices)
	require.Equal(t, []float64{0.9, 0.2}, result.Scores)
}

func TestCohereRerankerEmptyQueryIsPassthrough(t *testing.T) {
	reranker := NewCohereReranker("key", "http://127.0.0.1:1", "", nil, nil)
	result, err := reranker.Rerank(context.Background(), "", []string{"a", "b"}, 0)
	require.NoError(t, err)
	require.Equal(t, "passthrough", result.Model)
	require.Equal(t, []int{0, 1}, result.Indices)
}

func TestJinaRerankerAcceptsScoreOrRelevanceScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := jinaRerankResponse{}
		resp.Results = append(resp.Results,
			struct {
				Index          int     `json:"index"`
				Score          float64 `json:"score"`
				RelevanceScore float64 `json:"relevance_score"`
			}{Index: 0, Score: 0.3},
			struct {
				Index          int     `json:"index"`
				Score          float64 `json:"score"`
				RelevanceScore float64 `json:"relevance_score"`
			}{Index: 1, RelevanceScore: 0.8},
		)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	reranker := NewJinaReranker("key", srv.URL, "", srv.Client(), nil)
	result, err := reranker.Rerank(context.Background(), "query", []string{"doc0", "doc1"}, 0)
	require.NoError(t, err)
	require.Equal(t, []int{1, 0}, result.Indices)
}

func TestCaikitRerankerTrustsUpstreamOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := caikitRerankResponse{}
		resp.Result.Scores = append(resp.Result.Scores,
			struct {
				Index int     `json:"index"`
				Score float64 `json:"score"`
			}{Index: 1, Score: 0.2},
			struct {
				Index int     `json:"index"`
				Score float64 `json:"score"`
			}{Index: 0, Score: 0.9},
		)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	reranker, err := NewCaikitReranker(srv.URL, "model-1", "", srv.Client(), nil)
	require.NoError(t, err)
	result, err := reranker.Rerank(context.Background(), "query", []string{"doc0", "doc1"}, 0)
	require.NoError(t, err)
	require.Equal(t, []int{1, 0}, result.Indices)
}

func TestServiceFirstRerankerFallsBackOnFailure(t *testing.T) {
	inner := &fakeReranker{result: Result{Indices: []int{0, 1}, Model: "direct"}}
	w := NewServiceFirstReranker(inner, "http://127.0.0.1:1", "", nil, nil)
	result, err := w.Rerank(context.Background(), "q", []string{"a", "b"}, 0)
	require.NoError(t, err)
	require.Equal(t, "direct", result.Model)
}

func TestServiceFirstRerankerUsesServiceWhenHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(serviceRerankResponse{Indices: []int{1, 0}, Model: "service"})
	}))
	defer srv.Close()

	inner := &fakeReranker{result: Result{Indices: []int{0, 1}, Model: "direct"}}
	w := NewServiceFirstReranker(inner, srv.URL, "", srv.Client(), nil)
	result, err := w.Rerank(context.Background(), "q", []string{"a", "b"}, 0)
	require.NoError(t, err)
	require.Equal(t, "service", result.Model)
}

type fakeReranker struct {
	result Result
	err    error
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, docs []string, topN int) (Result, error) {
	return f.result, f.err
}
func (f *fakeReranker) MaxDocuments() int    { return 1000 }
func (f *fakeReranker) SupportsScores() bool { return true }
