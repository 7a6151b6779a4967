package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rdwj/vectorgateway/internal/gwerr"
	"github.com/rdwj/vectorgateway/internal/logging"
)

const caikitMaxDocuments = 1000

// CaikitReranker calls an in-cluster Caikit rerank task endpoint. Unlike
// Cohere and Jina, Caikit's response is trusted pre-sorted and is not
// re-ranked locally. Grounded on
// original_source/services/rag_core/rerank.py's _rerank_caikit.
type CaikitReranker struct {
	BaseURL string
	ModelID string
	APIKey  string
	Client  *http.Client
	Log     logging.Logger
}

func NewCaikitReranker(baseURL, modelID, apiKey string, client *http.Client, log logging.Logger) (*CaikitReranker, error) {
	if baseURL == "" {
		return nil, gwerr.NewConfig("caikit reranker requires a base URL")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logging.Global
	}
	return &CaikitReranker{BaseURL: baseURL, ModelID: modelID, APIKey: apiKey, Client: client, Log: log}, nil
}

func (r *CaikitReranker) MaxDocuments() int    { return caikitMaxDocuments }
func (r *CaikitReranker) SupportsScores() bool { return true }

type caikitRerankDocument struct {
	Text string `json:"text"`
}

type caikitRerankParameters struct {
	TopN int `json:"top_n,omitempty"`
}

type caikitRerankRequest struct {
	Inputs struct {
		Query     string                  `json:"query"`
		Documents []caikitRerankDocument `json:"documents"`
	} `json:"inputs"`
	ModelID    string                  `json:"model_id"`
	Parameters caikitRerankParameters `json:"parameters"`
}

type caikitRerankResponse struct {
	Result struct {
		Scores []struct {
			Index int     `json:"index"`
			Score float64 `json:"score"`
		} `json:"scores"`
	} `json:"result"`
}

func (r *CaikitReranker) Rerank(ctx context.Context, query string, docs []string, topN int) (Result, error) {
	if len(docs) == 0 {
		return Result{Model: r.ModelID}, nil
	}
	if query == "" {
		return Result{Indices: PassthroughOrder(len(docs), topN), Model: "passthrough"}, nil
	}
	if len(docs) > r.MaxDocuments() {
		r.Log.Warn("rerank input exceeds max_documents, truncating", "max_documents", r.MaxDocuments(), "got", len(docs))
		docs = docs[:r.MaxDocuments()]
	}

	var reqBody caikitRerankRequest
	reqBody.Inputs.Query = query
	for _, d := range docs {
		reqBody.Inputs.Documents = append(reqBody.Inputs.Documents, caikitRerankDocument{Text: d})
	}
	reqBody.ModelID = r.ModelID
	if topN > 0 {
		reqBody.Parameters.TopN = topN
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, gwerr.NewFormat("rerank", "marshaling request: %s", err)
	}

	url := r.BaseURL + "/api/v1/task/rerank"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, gwerr.NewRemote("rerank", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return Result{}, gwerr.NewRemote("rerank", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, gwerr.NewRemote("rerank", errStatus(resp.StatusCode))
	}

	var parsed caikitRerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, gwerr.NewFormat("rerank", "decoding response: %s", err)
	}

	indices := make([]int, 0, len(parsed.Result.Scores))
	scores := make([]float64, 0, len(parsed.Result.Scores))
	for _, s := range parsed.Result.Scores {
		indices = append(indices, s.Index)
		scores = append(scores, s.Score)
	}
	if topN > 0 && topN < len(indices) {
		indices = indices[:topN]
		scores = scores[:topN]
	}
	return Result{Indices: indices, Scores: scores, Model: r.ModelID}, nil
}
