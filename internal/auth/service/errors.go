package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidInput       = errors.New("invalid_request")
	ErrUserExists         = errors.New("user_exists")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")

	// ErrDependencyUnavailable wraps storage or blacklist failures on the
	// critical path. Handlers map it to 503.
	ErrDependencyUnavailable = errors.New("dependency_unavailable")
)
