package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
)

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	t.Run("api error envelope", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusUnauthorized}
		err := parseErrorResponse(resp, []byte(`{"error":"token_expired","error_description":"expired"}`))

		require.ErrorIs(t, err, httpx.ErrTokenExpired)
		require.True(t, IsTokenExpired(err))
		require.False(t, NeedsLogin(err))

		var apiErr *httpx.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.Equal(t, "expired", apiErr.Description)
	})

	t.Run("non json body", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusBadGateway}
		err := parseErrorResponse(resp, []byte("<html>bad gateway</html>"))
		require.ErrorIs(t, err, httpx.ErrServerError)
		require.Contains(t, err.Error(), "502")
	})

	t.Run("success is nil", func(t *testing.T) {
		require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusNoContent}, nil))
	})

	t.Run("revoked needs login", func(t *testing.T) {
		require.True(t, NeedsLogin(httpx.ErrTokenRevoked))
		require.True(t, NeedsLogin(httpx.ErrTokenInvalid))
		require.False(t, NeedsLogin(errors.New("network")))
	})
}

func TestSessionRefreshesOnExpiredToken(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/refresh":
			var req RefreshRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken != "refresh-1" {
				httpx.ErrTokenInvalid.WriteError(w)
				return
			}
			refreshes.Add(1)
			httpx.WriteJSON(w, http.StatusOK, TokenResponse{
				AccessToken:  "access-2",
				TokenType:    "Bearer",
				ExpiresIn:    45,
				RefreshToken: "refresh-2",
			})
		case "/v1/auth/me":
			if r.Header.Get("Authorization") != "Bearer access-2" {
				httpx.ErrTokenExpired.WriteError(w)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, MeResponse{ID: "u1", Username: "alice", Role: "user"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewSDKClient(srv.URL + "/")
	// expiresIn of 45s keeps the token locally fresh, so the server's
	// token_expired answer drives the refresh.
	s := c.NewSessionFromTokens("access-1", "refresh-1", 45)

	me, err := s.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)
	require.Equal(t, int32(1), refreshes.Load())

	access, refresh := s.Tokens()
	require.Equal(t, "access-2", access)
	require.Equal(t, "refresh-2", refresh)

	// The old refresh token is gone, so a forced refresh now fails.
	s.mu.Lock()
	s.refreshToken = "refresh-1-stale"
	s.mu.Unlock()
	err = s.Refresh(context.Background())
	require.True(t, NeedsLogin(err))
}

func TestSessionRefreshesLocallyExpiredToken(t *testing.T) {
	t.Parallel()

	var sawAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/refresh":
			httpx.WriteJSON(w, http.StatusOK, TokenResponse{AccessToken: "fresh", ExpiresIn: 45, RefreshToken: "r2"})
		case "/v1/auth/verify":
			sawAuth = r.Header.Get("Authorization")
			httpx.WriteJSON(w, http.StatusOK, VerifyResponse{Valid: true})
		}
	}))
	t.Cleanup(srv.Close)

	s := NewSDKClient(srv.URL).NewSessionFromTokens("stale", "r1", 0)
	v, err := s.Verify(context.Background())
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, "Bearer fresh", sawAuth)
}

func TestGetReadinessDegraded(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "degraded",
			Checks: &HealthChecks{Database: "ok", Blacklist: "error: down"},
		})
	}))
	t.Cleanup(srv.Close)

	h, err := NewSDKClient(srv.URL).GetReadiness(context.Background())
	require.ErrorIs(t, err, ErrNotReady)
	require.Equal(t, "degraded", h.Status)
	require.Equal(t, "error: down", h.Checks.Blacklist)
}
