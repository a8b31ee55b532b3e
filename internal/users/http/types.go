package http

import (
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/domain"
)

// ProfileResponse is the public view of a user projection.
type ProfileResponse struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Role             string     `json:"rbac_role"`
	AvatarURL        string     `json:"avatar_url"`
	Bio              string     `json:"bio"`
	Theme            string     `json:"theme"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	ProfileUpdatedAt *time.Time `json:"profile_updated_at,omitempty"`
	SyncedFromAuth   bool       `json:"synced_from_auth"`
	SyncedAt         time.Time  `json:"synced_at"`
}

// UpdateProfileRequest carries the fields to change. Omitted fields are
// left as they are.
type UpdateProfileRequest struct {
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Theme     *string `json:"theme,omitempty"`
}

func profileResponse(p domain.UserProjection) ProfileResponse {
	return ProfileResponse{
		ID:               p.ID,
		Username:         p.Username,
		Email:            p.Email,
		Role:             p.Role,
		AvatarURL:        p.AvatarURL,
		Bio:              p.Bio,
		Theme:            p.Theme,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		ProfileUpdatedAt: p.ProfileUpdatedAt,
		SyncedFromAuth:   p.SyncedFromAuth,
		SyncedAt:         p.SyncedAt,
	}
}
