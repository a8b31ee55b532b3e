// Package service implements the user service's profile operations on top
// of the projection store.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// Profile field limits.
const (
	MaxBioLength       = 500
	MaxAvatarURLLength = 512
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidProfile        = errors.New("invalid profile update")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

type ProfileService struct {
	Store store.Store

	Now func() time.Time
}

func NewProfileService(st store.Store) *ProfileService {
	return &ProfileService{Store: st, Now: time.Now}
}

// Get returns the projection for id.
func (s *ProfileService) Get(ctx context.Context, id string) (domain.UserProjection, error) {
	p, err := s.Store.Projections().GetProjection(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.UserProjection{}, ErrUserNotFound
	case err != nil:
		return domain.UserProjection{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return p, nil
}

// UpdateProfile validates and applies u to the user-owned fields of id.
func (s *ProfileService) UpdateProfile(ctx context.Context, id string, u domain.ProfileUpdate) (domain.UserProjection, error) {
	if err := ValidateProfileUpdate(u); err != nil {
		return domain.UserProjection{}, err
	}

	p, err := s.Store.Projections().UpdateProfile(ctx, id, u, s.Now().UTC())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.UserProjection{}, ErrUserNotFound
	case errors.Is(err, store.ErrInvalid):
		return domain.UserProjection{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	case err != nil:
		return domain.UserProjection{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	slogx.FromContext(ctx).Info("profile updated", "user_id", id)
	return p, nil
}

// ValidateProfileUpdate checks every field present in u.
func ValidateProfileUpdate(u domain.ProfileUpdate) error {
	if u.Empty() {
		return fmt.Errorf("%w: no fields to update", ErrInvalidProfile)
	}
	if u.Bio != nil && utf8.RuneCountInString(*u.Bio) > MaxBioLength {
		return fmt.Errorf("%w: bio must be at most %d characters", ErrInvalidProfile, MaxBioLength)
	}
	if u.AvatarURL != nil {
		if err := validateAvatarURL(*u.AvatarURL); err != nil {
			return err
		}
	}
	if u.Theme != nil && *u.Theme != domain.ThemeLight && *u.Theme != domain.ThemeDark {
		return fmt.Errorf("%w: theme must be %q or %q", ErrInvalidProfile, domain.ThemeLight, domain.ThemeDark)
	}
	return nil
}

// Avatars are either a site-relative path or an absolute http(s) URL.
func validateAvatarURL(raw string) error {
	if raw == "" || len(raw) > MaxAvatarURLLength {
		return fmt.Errorf("%w: avatar_url must be 1 to %d characters", ErrInvalidProfile, MaxAvatarURLLength)
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: avatar_url must be a path or an http(s) URL", ErrInvalidProfile)
	}
	return nil
}
