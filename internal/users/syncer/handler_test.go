package syncer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store/drivers/sqlite"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/syncer"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/eventbus"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func userEvent(t *testing.T, eventType, id, username string, updatedAt time.Time) eventbus.Event {
	t.Helper()
	e, err := eventbus.NewEvent(eventType, eventbus.SourceAuthService, eventbus.UserPayload{
		UserID:    id,
		Username:  username,
		Email:     username + "@example.com",
		Role:      "user",
		CreatedAt: t0,
		UpdatedAt: updatedAt,
	}, updatedAt.Add(time.Second))
	require.NoError(t, err)
	return e
}

func TestHandleRegisteredIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	h := syncer.NewHandler(s.Projections())

	e := userEvent(t, eventbus.UserRegistered, "42", "alice", t0)
	require.NoError(t, h.Handle(ctx, e))
	first, err := s.Projections().GetProjection(ctx, "42")
	require.NoError(t, err)

	require.NoError(t, h.Handle(ctx, e))
	second, err := s.Projections().GetProjection(ctx, "42")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, domain.DefaultAvatarURL, second.AvatarURL)
	require.Equal(t, domain.DefaultTheme, second.Theme)
	require.True(t, second.SyncedFromAuth)
	require.True(t, t0.Add(time.Second).Equal(second.SyncedAt))

	n, err := s.Projections().CountProjections(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestHandleConvergesOnLatest(t *testing.T) {
	t.Parallel()

	older := t0
	newer := t0.Add(time.Hour)

	orders := map[string][]time.Time{
		"in order":     {older, newer},
		"out of order": {newer, older},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := newStore(t)
			h := syncer.NewHandler(s.Projections())

			for _, ts := range order {
				username := "alice"
				if ts.Equal(newer) {
					username = "alice-renamed"
				}
				require.NoError(t, h.Handle(ctx, userEvent(t, eventbus.UserRegistered, "42", username, ts)))
			}

			got, err := s.Projections().GetProjection(ctx, "42")
			require.NoError(t, err)
			require.True(t, newer.Equal(got.UpdatedAt))
			require.Equal(t, "alice-renamed", got.Username)

			n, err := s.Projections().CountProjections(ctx)
			require.NoError(t, err)
			require.EqualValues(t, 1, n)
		})
	}
}

func TestHandleUpdated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	h := syncer.NewHandler(s.Projections())

	require.NoError(t, h.Handle(ctx, userEvent(t, eventbus.UserRegistered, "7", "bob", t0)))
	require.NoError(t, h.Handle(ctx, userEvent(t, eventbus.UserUpdated, "7", "robert", t0.Add(time.Minute))))

	got, err := s.Projections().GetProjection(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, "robert", got.Username)
	require.Equal(t, "robert@example.com", got.Email)
}

func TestHandleAcksWithoutWriting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	h := syncer.NewHandler(s.Projections())

	deleted, err := eventbus.NewEvent(eventbus.UserDeleted, eventbus.SourceAuthService,
		eventbus.UserDeletedPayload{UserID: "42"}, t0)
	require.NoError(t, err)
	require.NoError(t, h.Handle(ctx, deleted))

	unknown, err := eventbus.NewEvent("voucher.created", "voucher-service", map[string]string{"id": "1"}, t0)
	require.NoError(t, err)
	require.NoError(t, h.Handle(ctx, unknown))

	n, err := s.Projections().CountProjections(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestHandleMalformedPayload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := syncer.NewHandler(newStore(t).Projections())

	t.Run("missing user_id", func(t *testing.T) {
		e := userEvent(t, eventbus.UserRegistered, "", "nobody", t0)
		require.ErrorIs(t, h.Handle(ctx, e), eventbus.ErrMalformedEvent)
	})

	t.Run("payload of the wrong shape", func(t *testing.T) {
		e := eventbus.Event{Type: eventbus.UserRegistered, Data: []byte(`[1,2,3]`), Timestamp: t0}
		require.ErrorIs(t, h.Handle(ctx, e), eventbus.ErrMalformedEvent)
	})
}

func TestHandleStorageFailureRequeues(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.ExpectExec("INSERT INTO user_projections").WillReturnError(errors.New("disk I/O error"))

	h := syncer.NewHandler(sqlite.NewStoreFromDB(db).Projections())
	err = h.Handle(context.Background(), userEvent(t, eventbus.UserRegistered, "42", "alice", t0))
	require.Error(t, err)
	require.NotErrorIs(t, err, eventbus.ErrMalformedEvent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectionOfFallbacks(t *testing.T) {
	t.Parallel()

	e := eventbus.Event{Type: eventbus.UserRegistered, Timestamp: t0}
	p := syncer.ProjectionOf(eventbus.UserPayload{UserID: "1", Username: "x"}, e)
	require.True(t, t0.Equal(p.UpdatedAt))
	require.True(t, t0.Equal(p.CreatedAt))
	require.True(t, t0.Equal(p.SyncedAt))
	require.Equal(t, "user", p.Role)
}

// Scenario: user.registered for the same id delivered twice over the bus
// with different updated_at values leaves one record with the later value.
func TestConsumeThroughBus(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := newStore(t)
	h := syncer.NewHandler(s.Projections())

	bus := eventbus.NewMemoryBus()
	sub := syncer.Subscription("")
	require.Equal(t, syncer.DefaultQueue, sub.Queue)
	bus.Declare(sub.Queue, sub.RoutingKeys...)

	done := make(chan error, 1)
	go func() { done <- bus.Consume(ctx, sub, h.Handle) }()

	later := t0.Add(2 * time.Hour)
	require.NoError(t, bus.Publish(ctx, userEvent(t, eventbus.UserRegistered, "42", "alice", t0)))
	require.NoError(t, bus.Publish(ctx, userEvent(t, eventbus.UserRegistered, "42", "alice", later)))
	require.NoError(t, bus.PublishRaw(eventbus.UserRegistered, []byte(`not json`)))

	require.Eventually(t, func() bool { return bus.Pending(sub.Queue) == 0 }, 5*time.Second, 10*time.Millisecond)

	got, err := s.Projections().GetProjection(ctx, "42")
	require.NoError(t, err)
	require.True(t, later.Equal(got.UpdatedAt))

	n, err := s.Projections().CountProjections(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
