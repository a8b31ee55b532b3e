package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
)

func TestNewAccessClaims(t *testing.T) {
	t.Parallel()

	c := jwtx.NewAccessClaims("01HX", "alice", "user")
	require.Equal(t, "01HX", c.UserID)
	require.Equal(t, "alice", c.Username)
	require.Equal(t, "user", c.Role)
	require.Equal(t, jwtx.TokenTypeAccess, c.TokenType)
	require.Nil(t, c.ExpiresAt)
}

func TestNewJTI(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 100)
	for range 100 {
		id := jwtx.NewJTI()
		require.Len(t, id, 22)
		require.NotContains(t, seen, id)
		seen[id] = struct{}{}
	}
}

func TestRemainingTTL(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Truncate(time.Second)

	tests := []struct {
		name string
		exp  *jwt.NumericDate
		want time.Duration
	}{
		{name: "future", exp: jwt.NewNumericDate(now.Add(30 * time.Second)), want: 30 * time.Second},
		{name: "past", exp: jwt.NewNumericDate(now.Add(-time.Minute)), want: 0},
		{name: "no exp", exp: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: tt.exp}}
			require.Equal(t, tt.want, c.RemainingTTL(now))
		})
	}
}
