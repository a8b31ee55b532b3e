package jwtx

import (
	"errors"
	"time"
)

// Minter signs access-token claims.
type Minter interface {
	Mint(c Claims, ttl time.Duration) (string, error)
}

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// Verify failures. ErrExpired and ErrInvalid are distinct so callers can tell
// "refresh and retry" apart from "log in again".
var (
	ErrExpired    = errors.New("jwtx: token expired")
	ErrInvalid    = errors.New("jwtx: token invalid")
	ErrWeakSecret = errors.New("jwtx: signing secret must be at least 32 bytes")
	ErrBadTTL     = errors.New("jwtx: ttl must be positive")
)
