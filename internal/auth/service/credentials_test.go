package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"too short", "short", false},
		{"minimum", "12345678", true},
		{"blank", strings.Repeat(" ", 10), false},
		{"too long", strings.Repeat("a", service.MaxPasswordLength+1), false},
		{"maximum", strings.Repeat("a", service.MaxPasswordLength), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidatePassword(tt.password)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, service.ErrWeakPassword)
			}
		})
	}
}

func TestValidateUsernameAndEmail(t *testing.T) {
	t.Parallel()

	require.NoError(t, service.ValidateUsername("alice_01"))
	require.ErrorIs(t, service.ValidateUsername("al"), service.ErrInvalidInput)
	require.ErrorIs(t, service.ValidateUsername("alice smith"), service.ErrInvalidInput)

	got, err := service.NormalizeEmail(" Alice@Example.com ")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got)

	for _, bad := range []string{"", "alice", "Alice <alice@example.com>"} {
		_, err := service.NormalizeEmail(bad)
		require.ErrorIs(t, err, service.ErrInvalidInput, bad)
	}
}

func TestCredentialService_Verify(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	creds := &service.CredentialService{Store: e.store}

	u := e.register(t, "alice", "correct-horse")

	got, err := creds.Verify(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = creds.Verify(ctx, "alice", "wrong-password")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = creds.Verify(ctx, "nobody", "correct-horse")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}
