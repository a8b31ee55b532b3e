package http

import (
	"errors"
	"net/http"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// writeServiceError maps service sentinels onto the API error table.
// Anything unrecognised is logged and becomes a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrWeakPassword):
		httpx.ErrWeakPassword.WriteError(w)
	case errors.Is(err, service.ErrInvalidInput):
		httpx.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrUserExists):
		httpx.ErrConflict.WithDescription("username or email already registered").WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		httpx.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.ErrTokenInvalid.WithDescription("the refresh token is invalid or expired").WriteError(w)
	case errors.Is(err, service.ErrDependencyUnavailable):
		log.Error("dependency unavailable", slogx.Err(err))
		httpx.ErrDependencyUnavailable.WriteError(w)
	default:
		log.Error("request failed", slogx.Err(err))
		httpx.ErrServerError.WriteError(w)
	}
}
