package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes. Access tokens are deliberately short so a leaked
// token is only useful for seconds; clients refresh through the session store.
const (
	DefaultAccessTokenTTL = 45 * time.Second

	DefaultRefreshTokenTTL    = 7 * 24 * time.Hour
	RememberMeRefreshTokenTTL = 30 * 24 * time.Hour

	// RotatedRefreshTokenTTL applies to refresh tokens re-issued mid-session.
	RotatedRefreshTokenTTL = 10 * time.Minute
)

// TokenTypeAccess is the only token_type this package mints or accepts.
const TokenTypeAccess = "access"

// Claims are the access-token claims shared by every service that verifies
// bearer tokens. exp, iat and jti come from the embedded registered claims.
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"rbac_role"`
	TokenType string `json:"token_type"`

	jwt.RegisteredClaims
}

// NewAccessClaims builds the identity part of an access token. Timestamps are
// filled in by Mint.
func NewAccessClaims(userID, username, role string) Claims {
	return Claims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		TokenType: TokenTypeAccess,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim so two
// tokens minted in the same second for the same user never collide.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// RemainingTTL is the time left before the token expires, never negative.
func (c Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
