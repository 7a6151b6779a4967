package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rdwj/vectorgateway/internal/embedding"
	"github.com/rdwj/vectorgateway/internal/gateway"
	"github.com/rdwj/vectorgateway/internal/logging"
	"github.com/rdwj/vectorgateway/internal/rerank"
	"github.com/rdwj/vectorgateway/internal/store"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct{ dim int }

func (s stubEmbedder) Embed(_ context.Context, texts []string, _ embedding.Options) (embedding.Result, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, s.dim)
		v[0] = 1
		out[i] = v
	}
	return embedding.Result{Vectors: out, Model: "stub"}, nil
}
func (s stubEmbedder) Dimension() int { return s.dim }

func newTestServer(t *testing.T, authToken string) http.Handler {
	t.Helper()
	p := gateway.New(gateway.Config{
		Embedder:          stubEmbedder{dim: 3},
		Reranker:          rerank.PassthroughReranker{},
		Store:             store.NewMemoryStore(0),
		Log:               logging.New(logging.LevelOff),
		DefaultCollection: "docs",
	})
	return New(p, p.Store, authToken, logging.New(logging.LevelOff))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzBypassesAuth(t *testing.T) {
	h := newTestServer(t, "secret")
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchRequiresAuthWhenTokenSet(t *testing.T) {
	h := newTestServer(t, "secret")
	rec := doJSON(t, h, http.MethodPost, "/search", map[string]interface{}{"query": "x"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpsertThenSearchViaHTTP(t *testing.T) {
	h := newTestServer(t, "")

	upsertBody := map[string]interface{}{
		"documents": []map[string]interface{}{
			{"text": "cats are great", "metadata": map[string]interface{}{"file_name": "a.txt"}},
		},
	}
	rec := doJSON(t, h, http.MethodPost, "/upsert", upsertBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var upsertResp upsertResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upsertResp))
	require.Equal(t, 1, upsertResp.Inserted)

	searchBody := map[string]interface{}{"query": "cats", "top_k": 1}
	rec = doJSON(t, h, http.MethodPost, "/search", searchBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var searchResp searchResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &searchResp))
	require.Equal(t, 1, searchResp.Count)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	h := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodPost, "/search", map[string]interface{}{"query": ""}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollectionStatsNotFound(t *testing.T) {
	h := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodGet, "/collections/missing/stats", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCollections(t *testing.T) {
	h := newTestServer(t, "")
	upsertBody := map[string]interface{}{
		"documents":  []map[string]interface{}{{"text": "hello"}},
		"collection": "t1",
	}
	rec := doJSON(t, h, http.MethodPost, "/upsert", upsertBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/collections", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp collectionsResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Contains(t, listResp.Collections, "t1")
}
