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
	defaultJinaRerankURL = "https://api.jina.ai/v1/rerank"
	jinaMaxDocuments     = 1000
)

// JinaReranker calls Jina AI's rerank endpoint, which returns the same
// result shape as Cohere except the score field may be named "score" or
// "relevance_score". Grounded on
// original_source/services/rag_core/rerank.py's _rerank_jina.
type JinaReranker struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
	Log     logging.Logger
}

func NewJinaReranker(apiKey, baseURL, model string, client *http.Client, log logging.Logger) *JinaReranker {
	if baseURL == "" {
		baseURL = defaultJinaRerankURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logging.Global
	}
	return &JinaReranker{APIKey: apiKey, BaseURL: baseURL, Model: model, Client: client, Log: log}
}

func (r *JinaReranker) MaxDocuments() int    { return jinaMaxDocuments }
func (r *JinaReranker) SupportsScores() bool { return true }

type jinaRerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      *int     `json:"top_n,omitempty"`
}

type jinaRerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		Score          float64 `json:"score"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

func (r *JinaReranker) Rerank(ctx context.Context, query string, docs []string, topN int) (Result, error) {
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

	reqBody := jinaRerankRequest{Model: r.Model, Query: query, Documents: docs}
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

	var parsed jinaRerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, gwerr.NewFormat("rerank", "decoding response: %s", err)
	}

	score := func(i int) float64 {
		if parsed.Results[i].RelevanceScore != 0 {
			return parsed.Results[i].RelevanceScore
		}
		return parsed.Results[i].Score
	}
	order := make([]int, len(parsed.Results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return score(order[a]) > score(order[b]) })

	indices := make([]int, 0, len(order))
	scores := make([]float64, 0, len(order))
	for _, i := range order {
		indices = append(indices, parsed.Results[i].Index)
		scores = append(scores, score(i))
	}
	if topN > 0 && topN < len(indices) {
		indices = indices[:topN]
		scores = scores[:topN]
	}
	return Result{Indices: indices, Scores: scores, Model: r.Model}, nil
}
