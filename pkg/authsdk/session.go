package authsdk

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// refreshSkew refreshes a little before the server would reject the token.
const refreshSkew = 5 * time.Second

// Session is an authenticated client. Access tokens live for seconds, so
// every call checks expiry first and refreshes through the rotated refresh
// token when needed. Safe for concurrent use.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	user         UserResponse
}

func newSession(c *SDKClient, tok *TokenResponse) *Session {
	s := &Session{client: c}
	s.store(tok)
	return s
}

func (s *Session) store(tok *TokenResponse) {
	s.accessToken = tok.AccessToken
	s.refreshToken = tok.RefreshToken
	s.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - refreshSkew)
	if tok.User.ID != "" {
		s.user = tok.User
	}
}

// User returns the user the session was issued for, if the server sent it.
func (s *Session) User() UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Tokens returns the current access and refresh tokens.
func (s *Session) Tokens() (access, refresh string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

// getValidToken returns an access token that has not expired, refreshing it
// when necessary.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		tok := s.accessToken
		s.mu.RUnlock()
		return tok, nil
	}
	s.mu.RUnlock()

	return s.forceRefresh(ctx)
}

func (s *Session) forceRefresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", errors.New("session has no refresh token")
	}

	tok, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", err
	}
	s.store(tok)
	return s.accessToken, nil
}

// Refresh rotates the tokens now regardless of expiry.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	_, err := s.forceRefresh(ctx)
	return err
}

// do performs an authenticated request. A token_expired rejection triggers
// one refresh and retry.
func (s *Session) do(ctx context.Context, method, path string, body, out any, expectedStatus int) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}

	resp, err := s.client.doJSON(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	err = decodeJSON(resp, out, expectedStatus)
	if !IsTokenExpired(err) {
		return err
	}

	if err := s.Refresh(ctx); err != nil {
		return err
	}
	token, _ = s.Tokens()
	resp, err = s.client.doJSON(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expectedStatus)
}

// Me returns the caller's identity, role and permissions.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := s.do(ctx, http.MethodGet, "/v1/auth/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify asks the server to validate the current access token.
func (s *Session) Verify(ctx context.Context) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := s.do(ctx, http.MethodGet, "/v1/auth/verify", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sessions lists the caller's active sessions.
func (s *Session) Sessions(ctx context.Context) ([]SessionResponse, error) {
	var out []SessionResponse
	if err := s.do(ctx, http.MethodGet, "/v1/auth/sessions", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// AllSessions lists every active session grouped by user. Requires
// manage:all_sessions.
func (s *Session) AllSessions(ctx context.Context) (*AllSessionsResponse, error) {
	var out AllSessionsResponse
	if err := s.do(ctx, http.MethodGet, "/v1/auth/sessions/all", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RBACInfo returns the caller's role and permissions with the full role and
// permission lists.
func (s *Session) RBACInfo(ctx context.Context) (*RBACInfoResponse, error) {
	var out RBACInfoResponse
	if err := s.do(ctx, http.MethodGet, "/v1/auth/rbac", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserSessions lists another user's sessions. Requires manage:all_sessions
// unless userID is the caller.
func (s *Session) UserSessions(ctx context.Context, userID string) ([]SessionResponse, error) {
	var out []SessionResponse
	if err := s.do(ctx, http.MethodGet, "/v1/auth/users/"+userID+"/sessions", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// RevokeUserSessions signs userID out of every session.
func (s *Session) RevokeUserSessions(ctx context.Context, userID string) (*RevokeSessionsResponse, error) {
	var out RevokeSessionsResponse
	if err := s.do(ctx, http.MethodDelete, "/v1/auth/users/"+userID+"/sessions", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword changes the caller's password. The server revokes every
// session, including this one.
func (s *Session) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	var out MessageResponse
	return s.do(ctx, http.MethodPost, "/v1/auth/password", req, &out, http.StatusOK)
}

// Logout revokes the session's tokens. With all set, every session of the
// user is revoked.
func (s *Session) Logout(ctx context.Context, all bool) error {
	access, refresh := s.Tokens()
	return s.client.Logout(ctx, access, LogoutRequest{RefreshToken: refresh, LogoutAll: all})
}
