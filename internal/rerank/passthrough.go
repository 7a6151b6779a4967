package rerank

import "context"

// PassthroughReranker is the no-op reranker used when reranking is
// disabled (active provider "none"). Grounded on
// original_source/services/rag_core/providers/base.py's
// PassthroughRerankProvider and rag/reranker.go's trivial identity shape.
type PassthroughReranker struct{}

func (PassthroughReranker) Rerank(_ context.Context, _ string, docs []string, topN int) (Result, error) {
	return Result{Indices: PassthroughOrder(len(docs), topN), Model: "passthrough"}, nil
}

func (PassthroughReranker) MaxDocuments() int   { return 1000 }
func (PassthroughReranker) SupportsScores() bool { return false }
