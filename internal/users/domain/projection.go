// Package domain holds the user service's read model of identities owned by
// the auth service.
package domain

import "time"

// Defaults for user-owned fields of a freshly synced projection.
const (
	DefaultAvatarURL = "/default-avatar.png"
	DefaultTheme     = ThemeLight
)

// Supported UI themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// UserProjection mirrors the identity fields of an auth-service user under
// the same ID, plus profile fields only this service writes. Identity fields
// change only through sync events.
type UserProjection struct {
	ID        string
	Username  string
	Email     string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time // identity updated_at as reported by the auth service

	AvatarURL        string
	Bio              string
	Theme            string
	ProfileUpdatedAt *time.Time

	SyncedFromAuth bool
	SyncedAt       time.Time
}

// NewProjection returns a projection with the profile defaults applied.
func NewProjection(id, username, email, role string, createdAt, updatedAt, syncedAt time.Time) UserProjection {
	return UserProjection{
		ID:             id,
		Username:       username,
		Email:          email,
		Role:           role,
		CreatedAt:      createdAt.UTC(),
		UpdatedAt:      updatedAt.UTC(),
		AvatarURL:      DefaultAvatarURL,
		Theme:          DefaultTheme,
		SyncedFromAuth: true,
		SyncedAt:       syncedAt.UTC(),
	}
}

// ProfileUpdate is a partial update of the user-owned fields. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Bio       *string
	AvatarURL *string
	Theme     *string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Bio == nil && u.AvatarURL == nil && u.Theme == nil
}
