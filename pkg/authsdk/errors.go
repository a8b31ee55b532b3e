package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
)

// Error codes re-exported for callers that only import the SDK.
const (
	ErrorCodeInvalidRequest         = httpx.CodeInvalidRequest
	ErrorCodeInvalidCredentials     = httpx.CodeInvalidCredentials
	ErrorCodeWeakPassword           = httpx.CodeWeakPassword
	ErrorCodeTokenExpired           = httpx.CodeTokenExpired
	ErrorCodeTokenInvalid           = httpx.CodeTokenInvalid
	ErrorCodeTokenRevoked           = httpx.CodeTokenRevoked
	ErrorCodeInsufficientPermission = httpx.CodeInsufficientPermission
	ErrorCodeNotFound               = httpx.CodeNotFound
	ErrorCodeConflict               = httpx.CodeConflict
	ErrorCodeRateLimitExceeded      = httpx.CodeRateLimitExceeded
	ErrorCodeDependencyUnavailable  = httpx.CodeDependencyUnavailable
	ErrorCodeServerError            = httpx.CodeServerError
)

// parseErrorResponse turns a non-2xx response into an *httpx.APIError so
// callers can match it with errors.Is against the httpx.Err* values.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr httpx.APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	// Fallback: create generic error from status code
	return &httpx.APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}

// IsTokenExpired reports whether err means the access token should be
// refreshed.
func IsTokenExpired(err error) bool {
	return errorCode(err) == ErrorCodeTokenExpired
}

// NeedsLogin reports whether err means the client must authenticate again.
func NeedsLogin(err error) bool {
	switch errorCode(err) {
	case ErrorCodeTokenInvalid, ErrorCodeTokenRevoked:
		return true
	}
	return false
}

func errorCode(err error) string {
	var e *httpx.APIError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
