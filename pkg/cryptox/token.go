package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// RefreshTokenSize is the entropy of opaque refresh tokens in bytes: 86
// chars once base64url encoded.
const RefreshTokenSize = 64

// GenerateToken creates a cryptographically secure random token of size bytes,
// encoded as unpadded base64url.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateRefreshToken returns a new opaque refresh token together with the
// fingerprint that is persisted in its place.
func GenerateRefreshToken() (token, fingerprint string, err error) {
	token, err = GenerateToken(RefreshTokenSize)
	if err != nil {
		return "", "", err
	}
	return token, FingerprintToken(token), nil
}

// FingerprintToken returns the SHA-256 of token as base64url (43 chars). Stores
// and blacklists key on the fingerprint so raw tokens are never persisted.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
