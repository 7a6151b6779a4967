// Package tokens estimates and truncates text by token count.
//
// It prefers an exact BPE encoder and falls back to a cheap character-ratio
// heuristic when the encoder is unavailable, so callers never have to branch
// on which path was taken.
package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	defaultEncoding     = "cl100k_base"
	heuristicCharsPerTok = 4
	messageOverhead      = 4
	primingTokens         = 3
)

// Estimator counts and truncates text by approximate token count. It is
// safe for concurrent use.
type Estimator struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewEstimator builds an Estimator. If the named BPE encoding cannot be
// loaded (offline, unknown name, ...) the Estimator silently falls back to
// the heuristic for every call; construction never fails.
func NewEstimator(encoding string) *Estimator {
	if encoding == "" {
		encoding = defaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return &Estimator{}
	}
	return &Estimator{enc: enc}
}

// Estimate returns the approximate number of tokens in text. Always at
// least 1, matching the reference heuristic's floor.
func (e *Estimator) Estimate(text string) int {
	if text == "" {
		return 1
	}
	if n, ok := e.exact(text); ok {
		return n
	}
	return heuristic(text)
}

func (e *Estimator) exact(text string) (int, bool) {
	if e == nil || e.enc == nil {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	tok := e.enc.Encode(text, nil, nil)
	return len(tok), true
}

func heuristic(text string) int {
	if n := len(text) / heuristicCharsPerTok; n > 1 {
		return n
	}
	return 1
}

// TruncateToTokens truncates text so that Estimate(result) <= max. Uses the
// exact encoder when available; otherwise truncates by the same
// character-ratio heuristic used for estimation.
func (e *Estimator) TruncateToTokens(text string, max int) string {
	if text == "" || max <= 0 {
		return ""
	}
	if e != nil && e.enc != nil {
		e.mu.Lock()
		tok := e.enc.Encode(text, nil, nil)
		e.mu.Unlock()
		if len(tok) <= max {
			return text
		}
		e.mu.Lock()
		decoded := e.enc.Decode(tok[:max])
		e.mu.Unlock()
		return decoded
	}

	est := e.Estimate(text)
	if est <= max {
		return text
	}
	keepRatio := float64(max) / float64(est)
	n := int(float64(len(text)) * keepRatio)
	if n < 1 {
		n = 1
	}
	if n > len(text) {
		n = len(text)
	}
	return text[:n]
}

// TruncateByRatio truncates text to a character ratio and re-estimates,
// matching the batching truncation rule in C3: when a single input exceeds
// a token cap, truncate by character ratio and re-estimate rather than
// decode/re-encode exactly. Returns the truncated text and its re-estimated
// token count.
func (e *Estimator) TruncateByRatio(text string, max int) (string, int) {
	est := e.Estimate(text)
	if est <= max || est == 0 {
		return text, est
	}
	keepRatio := float64(max) / float64(est)
	n := int(float64(len(text)) * keepRatio)
	if n < 1 {
		n = 1
	}
	if n > len(text) {
		n = len(text)
	}
	truncated := text[:n]
	return truncated, e.Estimate(truncated)
}

// Message is the minimal chat-message shape CountInMessages needs.
type Message struct {
	Role    string
	Content string
}

// CountInMessages estimates the token count of a sequence of chat messages,
// adding the conventional per-message and priming overhead.
func (e *Estimator) CountInMessages(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += messageOverhead
		if m.Content != "" {
			total += e.Estimate(m.Content)
		}
	}
	total += primingTokens
	return total
}

// Words is a cheap non-BPE counter retained for callers that only need a
// rough split (e.g. log previews), grounded on the teacher's
// DefaultTokenCounter.
func Words(text string) int {
	return len(strings.Fields(text))
}
