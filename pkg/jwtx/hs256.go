package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret NewHS256 accepts.
const MinSecretLength = 32

// HS256 mints and verifies access tokens with a shared HMAC-SHA256 secret.
// Every instance of every service that shares the secret can verify tokens.
type HS256 struct {
	secret []byte
	parser *jwt.Parser

	// Now is the clock used for iat/exp. Defaults to time.Now.
	Now func() time.Time
}

// NewHS256 returns an HS256 issuer. The secret is copied.
func NewHS256(secret []byte) (*HS256, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}

	h := &HS256{
		secret: append([]byte(nil), secret...),
		Now:    time.Now,
	}
	h.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return h.Now() }),
	)
	return h, nil
}

// Mint stamps iat, exp and jti onto c and signs it. The caller's identity
// fields are preserved as-is.
func (h *HS256) Mint(c Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", ErrBadTTL
	}

	now := h.Now().UTC().Truncate(time.Second)
	c.TokenType = TokenTypeAccess
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if c.ID == "" {
		c.ID = NewJTI()
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm, expiry and token_type. It returns
// ErrExpired for a well-signed token past exp, and ErrInvalid for anything
// else.
func (h *HS256) Verify(token string) (Claims, error) {
	var c Claims
	_, err := h.parser.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.TokenType != TokenTypeAccess || c.UserID == "" {
		return Claims{}, ErrInvalid
	}
	return c, nil
}
