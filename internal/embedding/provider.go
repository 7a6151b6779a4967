// Package embedding implements the gateway's embedding-provider contract:
// a uniform Embed(texts) -> vectors call over OpenAI-compatible, Cohere,
// and Caikit backends, each handling its own batching and truncation
// rules, wrapped by a service-first fallback composer.
package embedding

import "context"

// InputType distinguishes a Cohere-style embedding request's purpose,
// which changes the vector space the provider returns.
type InputType string

const (
	InputTypeDocument InputType = "search_document"
	InputTypeQuery    InputType = "search_query"
)

// Options customizes a single Embed call. Zero value uses provider
// defaults and skips the embedding service (PreferService is false);
// callers that want the service-first path set PreferService.
type Options struct {
	Model          string
	EncodingFormat string
	PreferService  bool
	InputType      InputType
}

// Result is the outcome of an Embed call.
type Result struct {
	Vectors [][]float32
	Model   string
}

// Embedder is the uniform contract every embedding provider and wrapper
// implements. Per the Design Notes, provider selection is resolved once
// at config-load time into a concrete Embedder value, not dispatched by
// string per request.
type Embedder interface {
	// Embed returns one vector per input text, in input order. Empty
	// input yields an empty result. Nil texts are coerced to "".
	Embed(ctx context.Context, texts []string, opts Options) (Result, error)
	// Dimension reports the embedder's output vector length when known
	// statically (0 if it must be inferred from the first Embed call).
	Dimension() int
}
