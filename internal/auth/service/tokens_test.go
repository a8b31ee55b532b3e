package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
)

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("issues a 45s access token and a 7 day refresh token", func(t *testing.T) {
		e := newEnv(t)
		u := e.register(t, "alice", "correct-horse")

		res := e.login(t, "alice", "correct-horse")
		require.Equal(t, "Bearer", res.Tokens.TokenType)
		require.Equal(t, 45*time.Second, res.Tokens.ExpiresIn)
		require.Equal(t, e.clock.Now().Add(7*24*time.Hour), res.Tokens.RefreshExpiresAt)

		claims, err := e.issuer.Verify(res.Tokens.AccessToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, claims.UserID)
		require.Equal(t, "alice", claims.Username)
		require.Equal(t, "user", claims.Role)
		require.Equal(t, 45*time.Second, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

		require.Equal(t, 1, res.User.LoginCount)
		require.NotNil(t, res.User.LastLoginAt)
	})

	t.Run("remember me extends the refresh token", func(t *testing.T) {
		e := newEnv(t)
		e.register(t, "alice", "correct-horse")

		res, err := e.tokens.Login(ctx, service.LoginRequest{Username: "alice", Password: "correct-horse", RememberMe: true})
		require.NoError(t, err)
		require.Equal(t, e.clock.Now().Add(30*24*time.Hour), res.Tokens.RefreshExpiresAt)
	})

	t.Run("access token expires after 45s", func(t *testing.T) {
		e := newEnv(t)
		e.register(t, "alice", "correct-horse")
		res := e.login(t, "alice", "correct-horse")

		e.clock.Advance(46 * time.Second)
		_, err := e.issuer.Verify(res.Tokens.AccessToken)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("unknown user and wrong password look the same", func(t *testing.T) {
		e := newEnv(t)
		e.register(t, "alice", "correct-horse")

		_, err := e.tokens.Login(ctx, service.LoginRequest{Username: "alice", Password: "nope-nope"})
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
		_, err = e.tokens.Login(ctx, service.LoginRequest{Username: "mallory", Password: "nope-nope"})
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("a new login supersedes the previous session", func(t *testing.T) {
		e := newEnv(t)
		e.register(t, "alice", "correct-horse")
		first := e.login(t, "alice", "correct-horse")
		e.login(t, "alice", "correct-horse")

		_, err := e.tokens.Refresh(ctx, first.Tokens.RefreshToken, "", "")
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	e.register(t, "alice", "correct-horse")
	login := e.login(t, "alice", "correct-horse")

	e.clock.Advance(time.Minute)
	res, err := e.tokens.Refresh(ctx, login.Tokens.RefreshToken, "", "10.0.0.9")
	require.NoError(t, err)
	require.NotEqual(t, login.Tokens.RefreshToken, res.Tokens.RefreshToken)
	require.NotEqual(t, login.Tokens.AccessToken, res.Tokens.AccessToken)
	require.Equal(t, e.clock.Now().Add(10*time.Minute), res.Tokens.RefreshExpiresAt)

	_, err = e.issuer.Verify(res.Tokens.AccessToken)
	require.NoError(t, err)

	// The old refresh token is dead.
	_, err = e.tokens.Refresh(ctx, login.Tokens.RefreshToken, "", "")
	require.ErrorIs(t, err, service.ErrInvalidRefresh)

	// The rotated one still works, once.
	again, err := e.tokens.Refresh(ctx, res.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	_, err = e.tokens.Refresh(ctx, res.Tokens.RefreshToken, "", "")
	require.ErrorIs(t, err, service.ErrInvalidRefresh)

	sessions, err := e.sessions.ListSessions(ctx, again.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T) (*env, service.AuthResult, jwtx.Claims) {
		e := newEnv(t)
		e.register(t, "alice", "correct-horse")
		res := e.login(t, "alice", "correct-horse")
		claims, err := e.issuer.Verify(res.Tokens.AccessToken)
		require.NoError(t, err)
		return e, res, claims
	}

	t.Run("blacklists the access token and revokes the refresh token", func(t *testing.T) {
		e, res, claims := setup(t)

		e.tokens.Logout(ctx, service.LogoutRequest{
			AccessToken:  res.Tokens.AccessToken,
			Claims:       &claims,
			RefreshToken: res.Tokens.RefreshToken,
		})

		revoked, err := e.sessions.IsBlacklisted(ctx, res.Tokens.AccessToken)
		require.NoError(t, err)
		require.True(t, revoked)

		_, err = e.tokens.Refresh(ctx, res.Tokens.RefreshToken, "", "")
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
	})

	t.Run("without a refresh token every session is revoked", func(t *testing.T) {
		e, res, claims := setup(t)

		e.tokens.Logout(ctx, service.LogoutRequest{AccessToken: res.Tokens.AccessToken, Claims: &claims})

		sessions, err := e.sessions.ListSessions(ctx, claims.UserID)
		require.NoError(t, err)
		require.Empty(t, sessions)
	})

	t.Run("anonymous logout with a refresh token", func(t *testing.T) {
		e, res, _ := setup(t)

		e.tokens.Logout(ctx, service.LogoutRequest{RefreshToken: res.Tokens.RefreshToken})
		_, err := e.tokens.Refresh(ctx, res.Tokens.RefreshToken, "", "")
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
	})

	t.Run("blacklist expires with the access token", func(t *testing.T) {
		e, res, claims := setup(t)
		e.tokens.Logout(ctx, service.LogoutRequest{AccessToken: res.Tokens.AccessToken, Claims: &claims})

		require.Equal(t, 2, e.bl.Len()) // access token and refresh token

		e.clock.Advance(46 * time.Second)
		require.Equal(t, 1, e.bl.Purge())
		require.Equal(t, 1, e.bl.Len())
	})
}
