package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rdwj/vectorgateway/internal/gwerr"
)

// CaikitEmbedder calls a Caikit NLP embedding model, which exposes a
// single-item endpoint and a separate batch endpoint with a differently
// shaped response for each. Grounded on spec.md §4.3's Caikit path
// description and original_source/services/rag_core/embed.py's provider
// dispatch (new code: the teacher has no Caikit support).
type CaikitEmbedder struct {
	BaseURL string
	Model   string
	APIKey  string
	Client  *http.Client
}

func NewCaikitEmbedder(baseURL, model, apiKey string, client *http.Client) (*CaikitEmbedder, error) {
	if baseURL == "" {
		return nil, gwerr.NewConfig("caikit embedder: missing base_url")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &CaikitEmbedder{BaseURL: strings.TrimRight(baseURL, "/"), Model: model, APIKey: apiKey, Client: client}, nil
}

func (e *CaikitEmbedder) Dimension() int { return 0 }

type caikitSingleRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

type caikitSingleResponse struct {
	Result struct {
		Data struct {
			Values []float32 `json:"values"`
		} `json:"data"`
	} `json:"result"`
}

type caikitBatchRequest struct {
	Texts   []string `json:"texts"`
	ModelID string   `json:"model_id"`
}

type caikitBatchResponse struct {
	Results struct {
		Vectors []struct {
			Data struct {
				Values []float32 `json:"values"`
			} `json:"data"`
		} `json:"vectors"`
	} `json:"results"`
}

func (e *CaikitEmbedder) Embed(ctx context.Context, texts []string, opts Options) (Result, error) {
	if len(texts) == 0 {
		return Result{Model: e.modelOrOverride(opts.Model)}, nil
	}
	model := e.modelOrOverride(opts.Model)

	if len(texts) == 1 {
		vec, err := e.callSingle(ctx, texts[0], model)
		if err != nil {
			return Result{}, err
		}
		return Result{Vectors: [][]float32{vec}, Model: model}, nil
	}

	vecs, err := e.callBatch(ctx, texts, model)
	if err != nil {
		return Result{}, err
	}
	if len(vecs) != len(texts) {
		return Result{}, gwerr.NewFormat("embed", "expected %d vectors, got %d", len(texts), len(vecs))
	}
	return Result{Vectors: vecs, Model: model}, nil
}

func (e *CaikitEmbedder) modelOrOverride(override string) string {
	if override != "" {
		return override
	}
	return e.Model
}

func (e *CaikitEmbedder) callSingle(ctx context.Context, text, model string) ([]float32, error) {
	payload, err := json.Marshal(caikitSingleRequest{Text: text, ModelID: model})
	if err != nil {
		return nil, gwerr.NewFormat("embed", "marshaling request: %s", err)
	}
	var parsed caikitSingleResponse
	if err := e.post(ctx, "/api/v1/task/embedding", payload, &parsed); err != nil {
		return nil, err
	}
	return parsed.Result.Data.Values, nil
}

func (e *CaikitEmbedder) callBatch(ctx context.Context, texts []string, model string) ([][]float32, error) {
	payload, err := json.Marshal(caikitBatchRequest{Texts: texts, ModelID: model})
	if err != nil {
		return nil, gwerr.NewFormat("embed", "marshaling request: %s", err)
	}
	var parsed caikitBatchResponse
	if err := e.post(ctx, "/api/v1/task/embedding-tasks", payload, &parsed); err != nil {
		return nil, err
	}
	vecs := make([][]float32, len(parsed.Results.Vectors))
	for i, v := range parsed.Results.Vectors {
		vecs[i] = v.Data.Values
	}
	return vecs, nil
}

func (e *CaikitEmbedder) post(ctx context.Context, path string, payload []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return gwerr.NewRemote("embed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return gwerr.NewRemote("embed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gwerr.NewRemote("embed", httpStatusErrf(resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return gwerr.NewFormat("embed", "decoding response: %s", err)
	}
	return nil
}
