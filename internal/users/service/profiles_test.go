package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store/drivers/sqlite"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

func newService(t *testing.T) *service.ProfileService {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	_, err = st.Projections().UpsertFromSync(context.Background(),
		domain.NewProjection("42", "alice", "alice@example.com", "user", t0, t0, t0))
	require.NoError(t, err)

	svc := service.NewProfileService(st)
	svc.Now = func() time.Time { return t0.Add(time.Hour) }
	return svc
}

func TestValidateProfileUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		update  domain.ProfileUpdate
		wantErr bool
	}{
		{name: "empty", update: domain.ProfileUpdate{}, wantErr: true},
		{name: "bio", update: domain.ProfileUpdate{Bio: ptr("hello")}},
		{name: "empty bio clears", update: domain.ProfileUpdate{Bio: ptr("")}},
		{name: "bio too long", update: domain.ProfileUpdate{Bio: ptr(strings.Repeat("é", service.MaxBioLength+1))}, wantErr: true},
		{name: "bio at limit", update: domain.ProfileUpdate{Bio: ptr(strings.Repeat("é", service.MaxBioLength))}},
		{name: "relative avatar", update: domain.ProfileUpdate{AvatarURL: ptr("/avatars/a.png")}},
		{name: "https avatar", update: domain.ProfileUpdate{AvatarURL: ptr("https://cdn.example.com/a.png")}},
		{name: "protocol-relative avatar", update: domain.ProfileUpdate{AvatarURL: ptr("//evil.example.com/a.png")}, wantErr: true},
		{name: "javascript avatar", update: domain.ProfileUpdate{AvatarURL: ptr("javascript:alert(1)")}, wantErr: true},
		{name: "empty avatar", update: domain.ProfileUpdate{AvatarURL: ptr("")}, wantErr: true},
		{name: "dark theme", update: domain.ProfileUpdate{Theme: ptr(domain.ThemeDark)}},
		{name: "unknown theme", update: domain.ProfileUpdate{Theme: ptr("neon")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := service.ValidateProfileUpdate(tt.update)
			if tt.wantErr {
				require.ErrorIs(t, err, service.ErrInvalidProfile)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProfileService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(t)

	t.Run("get", func(t *testing.T) {
		p, err := svc.Get(ctx, "42")
		require.NoError(t, err)
		require.Equal(t, "alice", p.Username)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := svc.Get(ctx, "nope")
		require.ErrorIs(t, err, service.ErrUserNotFound)
	})

	t.Run("update", func(t *testing.T) {
		p, err := svc.UpdateProfile(ctx, "42", domain.ProfileUpdate{Theme: ptr(domain.ThemeDark), Bio: ptr("hi")})
		require.NoError(t, err)
		require.Equal(t, domain.ThemeDark, p.Theme)
		require.Equal(t, "hi", p.Bio)
		require.NotNil(t, p.ProfileUpdatedAt)
		require.True(t, t0.Add(time.Hour).Equal(*p.ProfileUpdatedAt))
	})

	t.Run("update unknown", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, "nope", domain.ProfileUpdate{Bio: ptr("x")})
		require.ErrorIs(t, err, service.ErrUserNotFound)
	})

	t.Run("invalid update never reaches the store", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, "42", domain.ProfileUpdate{Theme: ptr("neon")})
		require.ErrorIs(t, err, service.ErrInvalidProfile)
	})
}

func TestProfileServiceStoreDown(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.ExpectQuery("SELECT .* FROM user_projections").WillReturnError(context.DeadlineExceeded)

	svc := service.NewProfileService(sqlite.NewStoreFromDB(db))
	_, err = svc.Get(context.Background(), "42")
	require.ErrorIs(t, err, service.ErrDependencyUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}
