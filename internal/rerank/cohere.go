package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/rdwj/vectorgateway/internal/gwerr"
	"github.com/rdwj/vectorgateway/internal/logging"
)

const (
	defaultCohereRerankURL = "https://api.cohere.com/v1/rerank"
	cohereMaxDocuments     = 1000
)

// CohereReranker calls Cohere's /v1/rerank endpoint. Results are
// re-sorted descending by relevance_score locally rather than trusted in
// upstream order, per spec.md §4.4. Grounded on
// original_source/services/rag_core/rerank.py's _rerank_cohere.
type CohereReranker struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
	Log     logging.Logger
}

func NewCohereReranker(apiKey, baseURL, model string, client *http.Client, log logging.Logger) *CohereReranker {
	if baseURL == "" {
		baseURL = defaultCohereRerankURL
	}
	if model == "" {
		model = "rerank-english-v3.0"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logging.Global
	}
	return &CohereReranker{APIKey: apiKey, BaseURL: baseURL, Model: model, Client: client, Log: log}
}

func (r *CohereReranker) MaxDocuments() int    { return cohereMaxDocuments }
func (r *CohereReranker) SupportsScores() bool { return true }

type cohereRerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      *int     `json:"top_n,omitempty"`
}

type cohereRerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (r *CohereReranker) Rerank(ctx context.Context, query string, docs []string, topN int) (Result, error) {
	if len(docs) == 0 {
		return Result{Model: r.Model}, nil
	}
	if query == "" {
		return Result{Indices: PassthroughOrder(len(docs), topN), Model: "passthrough"}, nil
	}
	if len(docs) > r.MaxDocuments() {
		r.Log.Warn("rerank input exceeds max_documents, truncating", "max_documents", r.MaxDocuments(), "got", len(docs))
		docs = docs[:r.MaxDocuments()]
	}

	reqBody := cohereRerankRequest{Model: r.Model, Query: query, Documents: docs}
	if topN > 0 {
		reqBody.TopN = &topN
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, gwerr.NewFormat("rerank", "marshaling request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, gwerr.NewRemote("rerank", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.APIKey)

	resp, err := r.Client.Do(req)
	if err != nil {
		return Result{}, gwerr.NewRemote("rerank", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, gwerr.NewRemote("rerank", errStatus(resp.StatusCode))
	}

	var parsed cohereRerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, gwerr.NewFormat("rerank", "decoding response: %s", err)
	}

	sort.SliceStable(parsed.Results, func(i, j int) bool {
		return parsed.Results[i].RelevanceScore > parsed.Results[j].RelevanceScore
	})

	indices := make([]int, 0, len(parsed.Results))
	scores := make([]float64, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		indices = append(indices, res.Index)
		scores = append(scores, res.RelevanceScore)
	}
	if topN > 0 && topN < len(indices) {
		indices = indices[:topN]
		scores = scores[:topN]
	}
	return Result{Indices: indices, Scores: scores, Model: r.Model}, nil
}

type errStatus int

func (e errStatus) Error() string { return "unexpected status from rerank backend" }
