package authsdk

import (
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/rbac"
)

// ============================================================================
// Request Types
// ============================================================================

// RegisterRequest is the body of POST /v1/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me,omitempty"`
	DeviceInfo string `json:"device_info,omitempty"`
}

// RefreshRequest is the body of POST /v1/auth/refresh. The token may also be
// sent in the refresh_token cookie, in which case the body can be empty.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// LogoutRequest is the body of POST /v1/auth/logout. Every field is optional.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
	LogoutAll    bool   `json:"logout_all,omitempty"`
}

// ChangePasswordRequest is the body of POST /v1/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ============================================================================
// Response Types
// ============================================================================

// UserResponse is the public view of an identity record.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"rbac_role"`
}

// RegisterResponse is returned with 201 from the register endpoint.
type RegisterResponse struct {
	User UserResponse `json:"user"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	// AccessToken is the short-lived HS256 JWT.
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`

	// RefreshToken is the opaque refresh token. It is also set as an
	// HttpOnly cookie.
	RefreshToken string `json:"refresh_token"`

	User UserResponse `json:"user"`
}

// MeResponse is returned by GET /v1/auth/me.
type MeResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"rbac_role"`
	Permissions []string   `json:"permissions"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LoginCount  int        `json:"login_count"`
}

// VerifyResponse is returned by GET /v1/auth/verify.
type VerifyResponse struct {
	Valid bool           `json:"valid"`
	User  rbac.Principal `json:"user"`
}

// SessionResponse describes one active refresh token.
type SessionResponse struct {
	ID         string    `json:"id"`
	DeviceInfo string    `json:"device_info"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// AllSessionsResponse is returned by GET /v1/auth/sessions/all.
type AllSessionsResponse struct {
	SessionsByUser map[string][]SessionResponse `json:"sessions_by_user"`
	TotalUsers     int                          `json:"total_users"`
	TotalSessions  int                          `json:"total_sessions"`
}

// RBACInfoResponse describes the caller's role next to every role and
// permission the server knows.
type RBACInfoResponse struct {
	User                 rbac.Principal `json:"user"`
	AvailableRoles       []string       `json:"available_roles"`
	AvailablePermissions []string       `json:"available_permissions"`
}

// RevokeSessionsResponse is returned when an administrator signs a user out.
type RevokeSessionsResponse struct {
	Message string `json:"message"`
	Revoked int    `json:"revoked"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status ("ok" or "degraded")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks holds the readiness result per dependency. Empty fields were
// not checked by that service.
type HealthChecks struct {
	Database  string `json:"database,omitempty"`
	Blacklist string `json:"blacklist,omitempty"`
	Broker    string `json:"broker,omitempty"`
}
