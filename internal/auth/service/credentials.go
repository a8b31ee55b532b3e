package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/store"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/cryptox"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128

	MinUsernameLength = 3
	MaxUsernameLength = 32
	MaxEmailLength    = 254
)

// ValidatePassword enforces the password policy applied before hashing.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrWeakPassword, MaxPasswordLength)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: must not be blank", ErrWeakPassword)
	}
	return nil
}

// ValidateUsername allows letters, digits and . _ -.
func ValidateUsername(username string) error {
	if n := len(username); n < MinUsernameLength || n > MaxUsernameLength {
		return fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidInput, MinUsernameLength, MaxUsernameLength)
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
		default:
			return fmt.Errorf("%w: username contains invalid characters", ErrInvalidInput)
		}
	}
	return nil
}

// NormalizeEmail validates a bare address and lower-cases it.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > MaxEmailLength {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return strings.ToLower(email), nil
}

// CredentialService checks username/password pairs. Unknown users and wrong
// passwords are indistinguishable to the caller, including in timing.
type CredentialService struct {
	Store store.Store
}

// Verify returns the user when password matches. Storage failures are
// wrapped in ErrDependencyUnavailable; everything else is
// ErrInvalidCredentials.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.DummyVerify(password)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("%w: lookup user: %v", ErrDependencyUnavailable, err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrUnsupportedHash) {
			l.Error("stored password hash has an unsupported format", "user_id", u.ID)
		}
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Hash validates and hashes a new password.
func (s *CredentialService) Hash(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	return cryptox.HashPassword(password)
}
