package embedding

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder throttles calls to an inner Embedder by both
// requests-per-minute and tokens-per-minute, grounded on the teacher's
// examples/full_process.go RateLimiter (requestLimiter + tokenLimiter,
// RPM/TPM converted to a per-second rate.Limiter). Unlike the teacher's
// version this has no UpdateLimits: the gateway has no response-header
// feedback loop to adjust against, so the configured RPM/TPM are fixed
// for the process lifetime.
type RateLimitedEmbedder struct {
	Inner          Embedder
	requestLimiter *rate.Limiter
	tokenLimiter   *rate.Limiter
}

// NewRateLimitedEmbedder wraps inner with RPM/TPM limiters. A zero value
// for either disables that limiter (unbounded).
func NewRateLimitedEmbedder(inner Embedder, rpm, tpm int) *RateLimitedEmbedder {
	w := &RateLimitedEmbedder{Inner: inner}
	if rpm > 0 {
		w.requestLimiter = rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm)
	}
	if tpm > 0 {
		w.tokenLimiter = rate.NewLimiter(rate.Limit(float64(tpm)/60), tpm)
	}
	return w
}

func (w *RateLimitedEmbedder) Dimension() int { return w.Inner.Dimension() }

func (w *RateLimitedEmbedder) Embed(ctx context.Context, texts []string, opts Options) (Result, error) {
	if w.requestLimiter != nil {
		if err := w.requestLimiter.Wait(ctx); err != nil {
			return Result{}, err
		}
	}
	if w.tokenLimiter != nil {
		if err := w.tokenLimiter.WaitN(ctx, approxTokenCount(texts)); err != nil {
			return Result{}, err
		}
	}
	return w.Inner.Embed(ctx, texts, opts)
}

// approxTokenCount estimates a batch's token cost for the token bucket
// using the same character-count heuristic the reference implementation
// uses when it has no tokenizer on hand: roughly 4 characters per token.
func approxTokenCount(texts []string) int {
	chars := 0
	for _, t := range texts {
		chars += len(t)
	}
	n := chars / 4
	if n < 1 {
		n = 1
	}
	return n
}
