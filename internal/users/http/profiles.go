package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/rbac"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// ProfilesHandler serves the profile endpoints. Callers reach their own
// profile through the ownership permission; staff reach everyone's through
// the blanket one.
type ProfilesHandler struct {
	Profiles *service.ProfileService
}

// Get serves GET /v1/users/{id}.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := authorizeTarget(w, r, rbac.ReadUsers, rbac.UpdateOwnProfile)
	if !ok {
		return
	}

	p, err := h.Profiles.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profileResponse(p))
}

// UpdateProfile serves PATCH /v1/users/{id}/profile.
func (h *ProfilesHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := authorizeTarget(w, r, rbac.UpdateUsers, rbac.UpdateOwnProfile)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req, false); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	p, err := h.Profiles.UpdateProfile(r.Context(), id, domain.ProfileUpdate{
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
		Theme:     req.Theme,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profileResponse(p))
}

func authorizeTarget(w http.ResponseWriter, r *http.Request, blanket, own rbac.Permission) (string, bool) {
	p, _ := httpx.PrincipalFrom(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return "", false
	}
	if !rbac.CanAccessResource(p, id, blanket, own) {
		httpx.Forbidden(w, r, blanket, own)
		return "", false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		httpx.ErrNotFound.WithDescription("user not found").WriteError(w)
	case errors.Is(err, service.ErrInvalidProfile):
		httpx.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrDependencyUnavailable):
		slogx.FromContext(r.Context()).Error("profile store unavailable", slogx.Err(err))
		httpx.ErrDependencyUnavailable.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("unexpected profile error", slogx.Err(err))
		httpx.ErrServerError.WriteError(w)
	}
}
