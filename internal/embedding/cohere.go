package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rdwj/vectorgateway/internal/gwerr"
)

const (
	defaultCohereEmbedURL  = "https://api.cohere.com/v1/embed"
	cohereMaxBatchItems    = 96
	cohereMaxTokensPerItem = 512
)

// CohereEmbedder calls the Cohere embed API, which requires an
// input_type ("search_document" for upsert, "search_query" for queries)
// and auto-truncates from the end of overlong inputs rather than
// rejecting them. Grounded on
// original_source/services/rag_core/providers/cohere_embed.py's payload
// shape (new code in the teacher's provider idiom: the teacher has no
// Cohere embedder of its own).
type CohereEmbedder struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewCohereEmbedder(apiKey, baseURL, model string, client *http.Client) (*CohereEmbedder, error) {
	if apiKey == "" {
		return nil, gwerr.NewConfig("cohere embedder: missing API key")
	}
	if baseURL == "" {
		baseURL = defaultCohereEmbedURL
	}
	if model == "" {
		model = "embed-english-v3.0"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &CohereEmbedder{APIKey: apiKey, BaseURL: baseURL, Model: model, Client: client}, nil
}

func (e *CohereEmbedder) Dimension() int { return 0 }

type cohereEmbedRequest struct {
	Model      string   `json:"model"`
	Texts      []string `json:"texts"`
	InputType  string   `json:"input_type"`
	Truncate   string   `json:"truncate"`
}

type cohereEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *CohereEmbedder) Embed(ctx context.Context, texts []string, opts Options) (Result, error) {
	if len(texts) == 0 {
		return Result{Model: e.modelOrOverride(opts.Model)}, nil
	}
	model := e.modelOrOverride(opts.Model)
	inputType := string(opts.InputType)
	if inputType == "" {
		inputType = string(InputTypeDocument)
	}

	var vectors [][]float32
	for start := 0; start < len(texts); start += cohereMaxBatchItems {
		end := start + cohereMaxBatchItems
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.callAPI(ctx, texts[start:end], model, inputType)
		if err != nil {
			return Result{}, err
		}
		vectors = append(vectors, vecs...)
	}
	return Result{Vectors: vectors, Model: model}, nil
}

func (e *CohereEmbedder) modelOrOverride(override string) string {
	if override != "" {
		return override
	}
	return e.Model
}

func (e *CohereEmbedder) callAPI(ctx context.Context, batch []string, model, inputType string) ([][]float32, error) {
	reqBody := cohereEmbedRequest{Model: model, Texts: batch, InputType: inputType, Truncate: "END"}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, gwerr.NewFormat("embed", "marshaling request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, gwerr.NewRemote("embed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, gwerr.NewRemote("embed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, gwerr.NewRemote("embed", httpStatusErrf(resp.StatusCode))
	}

	var parsed cohereEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, gwerr.NewFormat("embed", "decoding response: %s", err)
	}
	if len(parsed.Embeddings) != len(batch) {
		return nil, gwerr.NewFormat("embed", "expected %d vectors, got %d", len(batch), len(parsed.Embeddings))
	}
	return parsed.Embeddings, nil
}

func httpStatusErrf(code int) error {
	return errStatus{code: code}
}

type errStatus struct{ code int }

func (e errStatus) Error() string {
	return "unexpected status " + strconv.Itoa(e.code) + " " + http.StatusText(e.code)
}
