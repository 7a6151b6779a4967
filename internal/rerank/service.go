package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rdwj/vectorgateway/internal/logging"
)

// ServiceFirstReranker tries an HTTP microservice first and falls back to
// the wrapped provider on any failure. Grounded on
// original_source/services/rag_core/rerank.py's _call_rerank_service plus
// rerank_documents's service-first orchestration.
type ServiceFirstReranker struct {
	Inner      Reranker
	ServiceURL string
	Token      string
	Client     *http.Client
	Log        logging.Logger
}

func NewServiceFirstReranker(inner Reranker, serviceURL, token string, client *http.Client, log logging.Logger) *ServiceFirstReranker {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logging.Global
	}
	return &ServiceFirstReranker{Inner: inner, ServiceURL: serviceURL, Token: token, Client: client, Log: log}
}

func (w *ServiceFirstReranker) MaxDocuments() int    { return w.Inner.MaxDocuments() }
func (w *ServiceFirstReranker) SupportsScores() bool { return true }

type serviceRerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type serviceRerankResponse struct {
	Indices []int     `json:"indices"`
	Scores  []float64 `json:"scores"`
	Model   string    `json:"model"`
}

func (w *ServiceFirstReranker) Rerank(ctx context.Context, query string, docs []string, topN int) (Result, error) {
	if w.ServiceURL != "" {
		if result, ok := w.viaService(ctx, query, docs, topN); ok {
			return result, nil
		}
	}
	return w.Inner.Rerank(ctx, query, docs, topN)
}

func (w *ServiceFirstReranker) viaService(ctx context.Context, query string, docs []string, topN int) (Result, bool) {
	payload, err := json.Marshal(serviceRerankRequest{Query: query, Documents: docs, TopN: topN})
	if err != nil {
		return Result{}, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.ServiceURL+"/rerank", bytes.NewReader(payload))
	if err != nil {
		w.Log.Warn("rerank service request build failed, falling back", "error", err)
		return Result{}, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if w.Token != "" {
		req.Header.Set("Authorization", "Bearer "+w.Token)
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		w.Log.Warn("rerank service unreachable, falling back to direct provider", "error", err)
		return Result{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.Log.Warn("rerank service returned non-2xx, falling back", "status", resp.StatusCode)
		return Result{}, false
	}

	var parsed serviceRerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		w.Log.Warn("rerank service response malformed, falling back", "error", err)
		return Result{}, false
	}
	if parsed.Indices == nil {
		w.Log.Warn("rerank service returned no indices, falling back")
		return Result{}, false
	}
	return Result{Indices: parsed.Indices, Scores: parsed.Scores, Model: parsed.Model}, true
}
