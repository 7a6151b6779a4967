package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rdwj/vectorgateway/internal/gwerr"
	"github.com/rdwj/vectorgateway/internal/tokens"
)

const (
	defaultOpenAIEmbeddingURL = "https://api.openai.com/v1/embeddings"
	defaultMaxBatchTokens     = 3500
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint (OpenAI
// itself, Azure OpenAI, vLLM, or Text Embeddings Inference). Grounded on
// rag/providers/openai.go's OpenAIEmbedder, generalized with the batching
// accumulator the single-chunk teacher version lacked.
type OpenAIEmbedder struct {
	APIKey            string
	BaseURL           string
	Model             string
	Dimensions        int
	MaxBatch          int
	MaxTokensPerInput int

	Client    *http.Client
	estimator *tokens.Estimator
}

// NewOpenAIEmbedder builds an OpenAIEmbedder. Fails with ConfigError if
// apiKey is empty, matching C2's "missing API key for a non-passthrough
// provider" failure rule.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dimensions, maxBatch, maxTokensPerInput int, client *http.Client) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, gwerr.NewConfig("openai embedder: missing API key")
	}
	if baseURL == "" {
		baseURL = defaultOpenAIEmbeddingURL
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if maxBatch <= 0 {
		maxBatch = 64
	}
	if maxTokensPerInput <= 0 {
		maxTokensPerInput = 8191
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &OpenAIEmbedder{
		APIKey:            apiKey,
		BaseURL:           baseURL,
		Model:             model,
		Dimensions:        dimensions,
		MaxBatch:          maxBatch,
		MaxTokensPerInput: maxTokensPerInput,
		Client:            client,
		estimator:         tokens.NewEstimator(""),
	}, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.Dimensions }

type openaiEmbeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
	Dimensions     int      `json:"dimensions,omitempty"`
}

type openaiEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed batches texts by the accumulator's token/item rules and calls the
// remote endpoint once per batch, preserving input order across flushes.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string, opts Options) (Result, error) {
	if len(texts) == 0 {
		return Result{Model: e.modelOrOverride(opts.Model)}, nil
	}
	model := e.modelOrOverride(opts.Model)

	acc := NewBatchAccumulator(e.estimator, e.MaxBatch, defaultMaxBatchTokens, e.MaxTokensPerInput)
	batches := acc.Batches(normalizeTexts(texts))

	var vectors [][]float32
	for _, batch := range batches {
		vecs, err := e.callAPI(ctx, batch, model, opts.EncodingFormat)
		if err != nil {
			return Result{}, err
		}
		vectors = append(vectors, vecs...)
	}
	return Result{Vectors: vectors, Model: model}, nil
}

func (e *OpenAIEmbedder) modelOrOverride(override string) string {
	if override != "" {
		return override
	}
	return e.Model
}

func (e *OpenAIEmbedder) callAPI(ctx context.Context, batch []string, model, encodingFormat string) ([][]float32, error) {
	reqBody := openaiEmbeddingRequest{Input: batch, Model: model, EncodingFormat: encodingFormat, Dimensions: e.Dimensions}
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

	var parsed openaiEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, gwerr.NewFormat("embed", "decoding response: %s", err)
	}
	if len(parsed.Data) != len(batch) {
		return nil, gwerr.NewFormat("embed", "expected %d vectors, got %d", len(batch), len(parsed.Data))
	}

	vecs := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

func normalizeTexts(texts []string) []string {
	out := make([]string, len(texts))
	copy(out, texts)
	return out
}
