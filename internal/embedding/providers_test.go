package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedderRejectsMissingAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "", "", 0, 0, 0, nil)
	require.Error(t, err)
}

func TestOpenAIEmbedderEmbedsAndPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := openaiEmbeddingResponse{}
		for range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
			}{Embedding: []float32{1, 2, 3}})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("sk-test", srv.URL, "text-embedding-3-small", 3, 64, 8191, srv.Client())
	require.NoError(t, err)

	result, err := e.Embed(context.Background(), []string{"a", "b"}, Options{})
	require.NoError(t, err)
	require.Len(t, result.Vectors, 2)
	require.Equal(t, []float32{1, 2, 3}, result.Vectors[0])
}

func TestOpenAIEmbedderEmptyInputYieldsEmptyOutput(t *testing.T) {
	e, err := NewOpenAIEmbedder("sk-test", "", "", 0, 0, 0, nil)
	require.NoError(t, err)
	result, err := e.Embed(context.Background(), nil, Options{})
	require.NoError(t, err)
	require.Empty(t, result.Vectors)
}

func TestServiceFirstEmbedderFallsBackOnFailure(t *testing.T) {
	inner := &fakeEmbedder{result: Result{Vectors: [][]float32{{9, 9}}, Model: "direct"}}
	w := NewServiceFirstEmbedder(inner, "http://127.0.0.1:1", "", nil, nil)
	result, err := w.Embed(context.Background(), []string{"x"}, Options{PreferService: true})
	require.NoError(t, err)
	require.Equal(t, "direct", result.Model)
}

func TestServiceFirstEmbedderUsesServiceWhenHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(serviceEmbedResponse{Vectors: [][]float32{{1, 1}}})
	}))
	defer srv.Close()

	inner := &fakeEmbedder{result: Result{Vectors: [][]float32{{9, 9}}, Model: "direct"}}
	w := NewServiceFirstEmbedder(inner, srv.URL, "", srv.Client(), nil)
	result, err := w.Embed(context.Background(), []string{"x"}, Options{PreferService: true})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 1}}, result.Vectors)
}

func TestServiceFirstEmbedderSkipsServiceWhenNotPreferred(t *testing.T) {
	inner := &fakeEmbedder{result: Result{Vectors: [][]float32{{9, 9}}, Model: "direct"}}
	w := NewServiceFirstEmbedder(inner, "http://127.0.0.1:1", "", nil, nil)
	result, err := w.Embed(context.Background(), []string{"x"}, Options{PreferService: false})
	require.NoError(t, err)
	require.Equal(t, "direct", result.Model)
}

type fakeEmbedder struct {
	result Result
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, opts Options) (Result, error) {
	return f.result, f.err
}
func (f *fakeEmbedder) Dimension() int { return 0 }
