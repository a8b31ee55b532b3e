package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/store"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/eventbus"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/idx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/rbac"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

type UserService struct {
	Store       store.Store
	Credentials *CredentialService
	Sessions    *SessionService
	Events      Notifier

	Now func() time.Time
}

func (s *UserService) events() Notifier {
	if s.Events == nil {
		return nopNotifier{}
	}
	return s.Events
}

// RegisterRequest is the self-service sign-up input.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// Register creates a user with the default role and announces it on the
// event bus. Publishing never fails registration.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if err := ValidateUsername(username); err != nil {
		return domain.User{}, err
	}
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return domain.User{}, err
	}
	hash, err := s.Credentials.Hash(req.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.Now().UTC()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         rbac.DefaultRole.String(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, fmt.Errorf("%w: create user: %v", ErrDependencyUnavailable, err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", u.ID)
	s.events().Notify(ctx, eventbus.UserRegistered, userPayload(u))
	return u, nil
}

// ChangePasswordRequest carries the caller's bearer so it can be revoked
// along with every refresh token.
type ChangePasswordRequest struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
	AccessToken     string
	Claims          jwtx.Claims
}

// ChangePassword verifies the current password, stores the new hash and
// signs the user out everywhere.
func (s *UserService) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	l := slogx.FromContext(ctx)

	u, err := s.Me(ctx, req.UserID)
	if err != nil {
		return err
	}
	if _, err := s.Credentials.Verify(ctx, u.Username, req.CurrentPassword); err != nil {
		return err
	}

	hash, err := s.Credentials.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	now := s.Now().UTC()
	if err := s.Store.Users().UpdatePasswordHash(ctx, u.ID, hash, now); err != nil {
		return fmt.Errorf("%w: update password: %v", ErrDependencyUnavailable, err)
	}
	u.UpdatedAt = now

	if _, err := s.Sessions.RevokeAll(ctx, u.ID); err != nil {
		l.Error("could not revoke sessions after password change", slogx.Err(err))
	}
	if req.AccessToken != "" {
		if err := s.Sessions.BlacklistAccessToken(ctx, req.AccessToken, req.Claims); err != nil {
			l.Error("could not blacklist access token after password change", slogx.Err(err))
		}
	}

	l.Info("password changed", "user_id", u.ID)
	s.events().Notify(ctx, eventbus.UserUpdated, userPayload(u))
	return nil
}

// Me loads the caller's identity record.
func (s *UserService) Me(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("%w: lookup user: %v", ErrDependencyUnavailable, err)
	}
	return u, nil
}
