package embedding

import "github.com/rdwj/vectorgateway/internal/tokens"

// BatchAccumulator implements the batched-embedding-with-token-budgets
// pattern called for in the Design Notes: an iterator/accumulator that
// emits flush events rather than recursing, preserving input order across
// flush boundaries. Grounded on the reference implementation's
// _embed_batch_direct / OpenAICompatEmbeddingProvider.embed batch loops.
type BatchAccumulator struct {
	estimator     *tokens.Estimator
	maxBatchItems int
	maxBatchToks  int
	maxInputToks  int

	current      []string
	currentToks  int
}

// NewBatchAccumulator builds an accumulator. maxBatchItems <= 0 means no
// item-count cap (only the token cap applies).
func NewBatchAccumulator(estimator *tokens.Estimator, maxBatchItems, maxBatchTokens, maxInputTokens int) *BatchAccumulator {
	return &BatchAccumulator{
		estimator:     estimator,
		maxBatchItems: maxBatchItems,
		maxBatchToks:  maxBatchTokens,
		maxInputToks:  maxInputTokens,
	}
}

// Add appends one (possibly truncated) text to the in-progress batch. If
// adding it would exceed the token or item cap, the current batch is
// returned as a flush and the text starts the next batch.
func (b *BatchAccumulator) Add(text string) (flushed []string) {
	if text == "" {
		text = ""
	}
	est := b.estimator.Estimate(text)
	if b.maxInputToks > 0 && est > b.maxInputToks {
		text, est = b.estimator.TruncateByRatio(text, b.maxInputToks)
	}

	exceedsTokens := len(b.current) > 0 && b.currentToks+est > b.maxBatchToks
	exceedsItems := b.maxBatchItems > 0 && len(b.current) >= b.maxBatchItems
	if len(b.current) > 0 && (exceedsTokens || exceedsItems) {
		flushed = b.current
		b.current = nil
		b.currentToks = 0
	}

	b.current = append(b.current, text)
	b.currentToks += est
	return flushed
}

// Flush returns and clears any remaining accumulated batch.
func (b *BatchAccumulator) Flush() []string {
	if len(b.current) == 0 {
		return nil
	}
	out := b.current
	b.current = nil
	b.currentToks = 0
	return out
}

// Batches splits texts into flush-ordered batches without calling a
// remote API, for callers that want the whole plan up front.
func (b *BatchAccumulator) Batches(texts []string) [][]string {
	var batches [][]string
	for _, t := range texts {
		if flushed := b.Add(t); flushed != nil {
			batches = append(batches, flushed)
		}
	}
	if rest := b.Flush(); rest != nil {
		batches = append(batches, rest)
	}
	return batches
}
