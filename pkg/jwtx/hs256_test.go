package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newIssuer(t *testing.T, now time.Time) *jwtx.HS256 {
	t.Helper()
	h, err := jwtx.NewHS256(testSecret)
	require.NoError(t, err)
	h.Now = func() time.Time { return now }
	return h
}

func TestNewHS256_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewHS256([]byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestMintVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	h := newIssuer(t, now)

	tests := []struct {
		name   string
		claims jwtx.Claims
		ttl    time.Duration
	}{
		{"user", jwtx.NewAccessClaims("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", "alice", "user"), jwtx.DefaultAccessTokenTTL},
		{"super admin", jwtx.NewAccessClaims("42", "root", "SUPER_ADMIN"), time.Hour},
		{"one second", jwtx.NewAccessClaims("7", "bob", "guest"), time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := h.Mint(tt.claims, tt.ttl)
			require.NoError(t, err)

			got, err := h.Verify(token)
			require.NoError(t, err)
			require.Equal(t, tt.claims.UserID, got.UserID)
			require.Equal(t, tt.claims.Username, got.Username)
			require.Equal(t, tt.claims.Role, got.Role)
			require.Equal(t, jwtx.TokenTypeAccess, got.TokenType)
			require.True(t, now.Equal(got.IssuedAt.Time))
			require.Equal(t, tt.ttl, got.ExpiresAt.Sub(got.IssuedAt.Time))
			require.NotEmpty(t, got.ID)
		})
	}
}

func TestMint_AccessTokenLifetime(t *testing.T) {
	t.Parallel()

	h := newIssuer(t, time.Now())
	token, err := h.Mint(jwtx.NewAccessClaims("u1", "alice", "user"), jwtx.DefaultAccessTokenTTL)
	require.NoError(t, err)

	got, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(45), got.ExpiresAt.Unix()-got.IssuedAt.Unix())
}

func TestMint_RejectsNonPositiveTTL(t *testing.T) {
	t.Parallel()

	h := newIssuer(t, time.Now())
	_, err := h.Mint(jwtx.NewAccessClaims("u1", "alice", "user"), 0)
	require.ErrorIs(t, err, jwtx.ErrBadTTL)
}

func TestMint_UniquePerCall(t *testing.T) {
	t.Parallel()

	h := newIssuer(t, time.Unix(1_700_000_000, 0))
	c := jwtx.NewAccessClaims("u1", "alice", "user")

	a, err := h.Mint(c, time.Minute)
	require.NoError(t, err)
	b, err := h.Mint(c, time.Minute)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	start := time.Unix(1_700_000_000, 0).UTC()
	h := newIssuer(t, start)

	token, err := h.Mint(jwtx.NewAccessClaims("u1", "alice", "user"), 45*time.Second)
	require.NoError(t, err)

	h.Now = func() time.Time { return start.Add(44 * time.Second) }
	_, err = h.Verify(token)
	require.NoError(t, err)

	h.Now = func() time.Time { return start.Add(46 * time.Second) }
	_, err = h.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
	require.NotErrorIs(t, err, jwtx.ErrInvalid)
}

func TestVerify_Invalid(t *testing.T) {
	t.Parallel()

	now := time.Now()
	h := newIssuer(t, now)
	good, err := h.Mint(jwtx.NewAccessClaims("u1", "alice", "user"), time.Minute)
	require.NoError(t, err)

	other, err := jwtx.NewHS256([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)
	foreign, err := other.Mint(jwtx.NewAccessClaims("u1", "alice", "admin"), time.Minute)
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwtx.Claims{
		UserID:    "u1",
		TokenType: jwtx.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	refreshLike := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.Claims{
		UserID:    "u1",
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	})
	wrongType, err := refreshLike.SignedString(testSecret)
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.Claims{UserID: "u1", TokenType: jwtx.TokenTypeAccess})
	missingExp, err := noExp.SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", foreign},
		{"tampered payload", tampered},
		{"alg none", unsigned},
		{"wrong token type", wrongType},
		{"missing exp", missingExp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Verify(tt.token)
			require.ErrorIs(t, err, jwtx.ErrInvalid)
			require.NotErrorIs(t, err, jwtx.ErrExpired)
		})
	}
}

func TestClaims_RemainingTTL(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	c := jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Second))}}

	require.Equal(t, 30*time.Second, c.RemainingTTL(now))
	require.Equal(t, time.Duration(0), c.RemainingTTL(now.Add(time.Minute)))
	require.Equal(t, time.Duration(0), jwtx.Claims{}.RemainingTTL(now))
}
