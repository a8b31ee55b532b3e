package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/eventbus"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates a user with the default role and publishes", func(t *testing.T) {
		e := newEnv(t)
		u := e.register(t, "alice", "correct-horse")
		require.Equal(t, "user", u.Role)
		require.Equal(t, "alice@example.com", u.Email)
		require.NotEqual(t, "correct-horse", u.PasswordHash)

		require.Len(t, e.events.events, 1)
		ev := e.events.events[0]
		require.Equal(t, eventbus.UserRegistered, ev.Type)
		p, ok := ev.Data.(eventbus.UserPayload)
		require.True(t, ok)
		require.Equal(t, u.ID, p.UserID)
		require.Equal(t, "user", p.Role)
	})

	t.Run("duplicates conflict", func(t *testing.T) {
		e := newEnv(t)
		e.register(t, "alice", "correct-horse")

		_, err := e.users.Register(ctx, service.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "correct-horse"})
		require.ErrorIs(t, err, service.ErrUserExists)

		_, err = e.users.Register(ctx, service.RegisterRequest{Username: "alice2", Email: "ALICE@example.com", Password: "correct-horse"})
		require.ErrorIs(t, err, service.ErrUserExists)
		require.Len(t, e.events.events, 1)
	})

	t.Run("weak password", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.users.Register(ctx, service.RegisterRequest{Username: "alice", Email: "a@example.com", Password: "short"})
		require.ErrorIs(t, err, service.ErrWeakPassword)
	})

	t.Run("event bus failures do not fail registration", func(t *testing.T) {
		e := newEnv(t)
		bus := eventbus.NewMemoryBus()
		require.NoError(t, bus.Close())

		n := eventbus.NewNotifier(bus, eventbus.SourceAuthService, slogx.Discard())
		n.InitialInterval = time.Millisecond
		e.users.Events = n

		e.register(t, "alice", "correct-horse")
		require.NoError(t, n.Close(ctx))
	})
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	u := e.register(t, "alice", "correct-horse")
	res := e.login(t, "alice", "correct-horse")
	claims, err := e.issuer.Verify(res.Tokens.AccessToken)
	require.NoError(t, err)

	req := service.ChangePasswordRequest{
		UserID:          u.ID,
		CurrentPassword: "wrong-password",
		NewPassword:     "battery-staple",
		AccessToken:     res.Tokens.AccessToken,
		Claims:          claims,
	}
	require.ErrorIs(t, e.users.ChangePassword(ctx, req), service.ErrInvalidCredentials)

	req.CurrentPassword = "correct-horse"
	req.NewPassword = "short"
	require.ErrorIs(t, e.users.ChangePassword(ctx, req), service.ErrWeakPassword)

	req.NewPassword = "battery-staple"
	require.NoError(t, e.users.ChangePassword(ctx, req))

	revoked, err := e.sessions.IsBlacklisted(ctx, res.Tokens.AccessToken)
	require.NoError(t, err)
	require.True(t, revoked)

	_, err = e.tokens.Refresh(ctx, res.Tokens.RefreshToken, "", "")
	require.ErrorIs(t, err, service.ErrInvalidRefresh)

	_, err = e.tokens.Login(ctx, service.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	e.login(t, "alice", "battery-staple")

	last := e.events.events[len(e.events.events)-1]
	require.Equal(t, eventbus.UserUpdated, last.Type)
}

func TestMe(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	u := e.register(t, "alice", "correct-horse")

	got, err := e.users.Me(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	_, err = e.users.Me(context.Background(), "missing")
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestHousekeeping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t)
	u := e.register(t, "alice", "correct-horse")

	_, _, err := e.sessions.CreateRefreshToken(ctx, u.ID, service.IssueOptions{TTL: time.Minute})
	require.NoError(t, err)
	require.NoError(t, e.bl.Add(ctx, "access", time.Second))

	e.clock.Advance(2 * time.Minute)

	hk := service.NewHousekeepingService(e.sessions, e.bl, slogx.Discard(), time.Hour)
	hk.RunOnce(ctx)

	require.Zero(t, e.bl.Len())
	n, err := e.sessions.CleanupExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	hk.Start()
	hk.Stop()
}
