package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rdwj/vectorgateway/internal/logging"
)

// ServiceFirstEmbedder implements the service-first-with-fallback pattern
// from the Design Notes: try a dedicated embedding microservice first, and
// on any failure (network error, timeout, non-2xx, malformed response)
// fall back to the wrapped Embedder. Grounded directly on
// original_source/services/vector_gateway/lib/embed.py's
// _embed_via_service / embed_texts.
type ServiceFirstEmbedder struct {
	Inner     Embedder
	ServiceURL string
	Token      string
	Client     *http.Client
	Log        logging.Logger
}

// NewServiceFirstEmbedder builds a wrapper. If serviceURL is empty, Embed
// delegates to inner unconditionally (the wrapper is then a no-op pass
// through, so callers need not branch on whether a service is configured).
func NewServiceFirstEmbedder(inner Embedder, serviceURL, token string, client *http.Client, log logging.Logger) *ServiceFirstEmbedder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logging.Global
	}
	return &ServiceFirstEmbedder{Inner: inner, ServiceURL: strings.TrimRight(serviceURL, "/"), Token: token, Client: client, Log: log}
}

func (w *ServiceFirstEmbedder) Dimension() int { return w.Inner.Dimension() }

type serviceEmbedRequest struct {
	Texts          []string `json:"texts"`
	Model          string   `json:"model,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type serviceEmbedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

func (w *ServiceFirstEmbedder) Embed(ctx context.Context, texts []string, opts Options) (Result, error) {
	preferService := opts.PreferService
	if w.ServiceURL != "" && preferService {
		if result, ok := w.viaService(ctx, texts, opts); ok {
			return result, nil
		}
	}
	return w.Inner.Embed(ctx, texts, opts)
}

func (w *ServiceFirstEmbedder) viaService(ctx context.Context, texts []string, opts Options) (Result, bool) {
	payload, err := json.Marshal(serviceEmbedRequest{Texts: texts, Model: opts.Model, EncodingFormat: opts.EncodingFormat})
	if err != nil {
		w.Log.Warn("embedding service request marshal failed", "error", err)
		return Result{}, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.ServiceURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		w.Log.Warn("embedding service request build failed", "error", err)
		return Result{}, false
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if w.Token != "" {
		req.Header.Set("Authorization", "Bearer "+w.Token)
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		w.Log.Warn("embedding service call failed", "error", err)
		return Result{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.Log.Warn("embedding service returned non-2xx", "status", resp.StatusCode)
		return Result{}, false
	}

	var parsed serviceEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		w.Log.Warn("embedding service returned malformed response", "error", err)
		return Result{}, false
	}
	if parsed.Vectors == nil {
		w.Log.Warn("embedding service returned unexpected format")
		return Result{}, false
	}
	return Result{Vectors: parsed.Vectors, Model: opts.Model}, true
}
