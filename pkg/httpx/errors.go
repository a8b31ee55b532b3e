package httpx

import (
	"fmt"
	"net/http"
)

// Machine-readable error codes returned in the "error" field. Clients branch
// on these: token_expired means refresh, token_invalid and token_revoked mean
// log in again, insufficient_permission means stop.
const (
	CodeInvalidRequest         = "invalid_request"
	CodeInvalidCredentials     = "invalid_credentials"
	CodeWeakPassword           = "weak_password"
	CodeTokenExpired           = "token_expired"
	CodeTokenInvalid           = "token_invalid"
	CodeTokenRevoked           = "token_revoked"
	CodeInsufficientPermission = "insufficient_permission"
	CodeNotFound               = "not_found"
	CodeConflict               = "conflict"
	CodeRateLimitExceeded      = "rate_limit_exceeded"
	CodeDependencyUnavailable  = "dependency_unavailable"
	CodeServerError            = "server_error"
)

// APIError is the JSON error envelope shared by every service.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on code so errors.Is works across decoded client errors.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes the error as JSON with its status code.
func (e *APIError) WriteError(w http.ResponseWriter) {
	WriteJSON(w, e.StatusCode, e)
}

// WithDescription returns a copy of e with a different description.
func (e *APIError) WithDescription(desc string) *APIError {
	return &APIError{StatusCode: e.StatusCode, Code: e.Code, Description: desc}
}

// Predefined errors. Descriptions are deliberately generic.
var (
	ErrInvalidRequest = &APIError{http.StatusBadRequest, CodeInvalidRequest, "the request is malformed"}

	ErrInvalidCredentials = &APIError{http.StatusUnauthorized, CodeInvalidCredentials, "invalid username or password"}

	ErrWeakPassword = &APIError{http.StatusBadRequest, CodeWeakPassword, "password must be between 8 and 128 characters"}

	ErrTokenExpired = &APIError{http.StatusUnauthorized, CodeTokenExpired, "the access token has expired"}

	ErrTokenInvalid = &APIError{http.StatusUnauthorized, CodeTokenInvalid, "the token is missing or invalid"}

	ErrTokenRevoked = &APIError{http.StatusUnauthorized, CodeTokenRevoked, "the token has been revoked"}

	ErrInsufficientPermission = &APIError{http.StatusForbidden, CodeInsufficientPermission, "you do not have permission to perform this action"}

	ErrNotFound = &APIError{http.StatusNotFound, CodeNotFound, "resource not found"}

	ErrConflict = &APIError{http.StatusConflict, CodeConflict, "resource already exists"}

	ErrRateLimitExceeded = &APIError{http.StatusTooManyRequests, CodeRateLimitExceeded, "too many requests, please try again later"}

	ErrDependencyUnavailable = &APIError{http.StatusServiceUnavailable, CodeDependencyUnavailable, "a required dependency is unavailable"}

	ErrServerError = &APIError{http.StatusInternalServerError, CodeServerError, "internal server error"}
)
