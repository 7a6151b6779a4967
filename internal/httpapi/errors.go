package httpapi

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/rdwj/vectorgateway/internal/gwerr"
)

// statusFor maps the gwerr taxonomy to the HTTP status codes named in
// SPEC_FULL.md §7. Rerank/filter errors never reach here: the gateway
// package swallows them at the source per the graceful-degradation rule,
// so any error this function sees is one that should short-circuit the
// request.
func statusFor(err error) int {
	var valErr *gwerr.ValidationError
	var authErr *gwerr.AuthError
	var notFoundErr *gwerr.NotFoundError
	var configErr *gwerr.ConfigError
	var remoteErr *gwerr.RemoteError
	var formatErr *gwerr.FormatError
	var capacityErr *gwerr.CapacityError

	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	case errors.As(err, &capacityErr):
		return http.StatusBadRequest
	case errors.As(err, &formatErr):
		if formatErr.Source == "embed" {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	case errors.As(err, &remoteErr):
		if remoteErr.Source == "embed" {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
