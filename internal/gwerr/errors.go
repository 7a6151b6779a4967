// Package gwerr defines the gateway's error taxonomy: typed errors that the
// HTTP surface maps to status codes at a single boundary, instead of
// scattering status-code decisions across handlers.
package gwerr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ValidationError indicates an input failed a schema or range check. Maps
// to HTTP 400; Field names the offending request field.
type ValidationError struct {
	Field string
	cause error
}

func NewValidation(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, cause: errors.Newf(format, args...)}
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.cause) }
func (e *ValidationError) Unwrap() error { return e.cause }

// AuthError indicates a missing or invalid bearer token. Maps to HTTP 401.
type AuthError struct{ cause error }

func NewAuth(msg string) *AuthError { return &AuthError{cause: errors.New(msg)} }
func (e *AuthError) Error() string   { return e.cause.Error() }
func (e *AuthError) Unwrap() error   { return e.cause }

// NotFoundError indicates an unknown collection. Maps to HTTP 404.
type NotFoundError struct {
	Collection string
	cause      error
}

func NewNotFound(collection string) *NotFoundError {
	return &NotFoundError{Collection: collection, cause: errors.Newf("collection %q not found", collection)}
}
func (e *NotFoundError) Error() string { return e.cause.Error() }
func (e *NotFoundError) Unwrap() error { return e.cause }

// ConfigError indicates a missing API key or an unresolved active provider
// name. Maps to HTTP 500, at startup or on first use.
type ConfigError struct{ cause error }

func NewConfig(format string, args ...interface{}) *ConfigError {
	return &ConfigError{cause: errors.Newf(format, args...)}
}
func (e *ConfigError) Error() string { return e.cause.Error() }
func (e *ConfigError) Unwrap() error { return e.cause }

// RemoteError indicates the embedder, reranker, or store returned a 4xx/5xx
// or timed out. Source distinguishes which collaborator failed, since the
// HTTP mapping differs (embedder -> 502, store -> 500).
type RemoteError struct {
	Source string // "embed", "rerank", "store"
	cause  error
}

func NewRemote(source string, cause error) *RemoteError {
	return &RemoteError{Source: source, cause: cause}
}
func (e *RemoteError) Error() string { return fmt.Sprintf("%s: %s", e.Source, e.cause) }
func (e *RemoteError) Unwrap() error { return e.cause }

// FormatError indicates an upstream response did not conform to the
// expected schema. Treated like RemoteError by the HTTP mapping.
type FormatError struct {
	Source string
	cause  error
}

func NewFormat(source string, format string, args ...interface{}) *FormatError {
	return &FormatError{Source: source, cause: errors.Newf(format, args...)}
}
func (e *FormatError) Error() string { return fmt.Sprintf("%s: %s", e.Source, e.cause) }
func (e *FormatError) Unwrap() error { return e.cause }

// CapacityError indicates the memory backend would exceed max_docs. Maps
// to HTTP 400.
type CapacityError struct{ cause error }

func NewCapacity(format string, args ...interface{}) *CapacityError {
	return &CapacityError{cause: errors.Newf(format, args...)}
}
func (e *CapacityError) Error() string { return e.cause.Error() }
func (e *CapacityError) Unwrap() error { return e.cause }
