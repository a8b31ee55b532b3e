package http

import (
	"net/http"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/rbac"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// SessionsHandler serves the session listing and revocation endpoints.
type SessionsHandler struct {
	SessionService *service.SessionService
}

// HandleOwn godoc
//
//	@Summary		List my sessions
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		authsdk.SessionResponse
//	@Failure		403	{object}	httpx.APIError	"insufficient_permission"
//	@Router			/v1/auth/sessions [get].
func (h *SessionsHandler) HandleOwn(w http.ResponseWriter, r *http.Request) {
	p, _ := httpx.PrincipalFrom(r.Context())
	h.list(w, r, p.ID)
}

// HandleAll godoc
//
//	@Summary		List all sessions
//	@Description	Every active session in the system, grouped by user ID. Requires manage:all_sessions.
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.AllSessionsResponse
//	@Failure		403	{object}	httpx.APIError	"insufficient_permission"
//	@Failure		503	{object}	httpx.APIError	"dependency_unavailable"
//	@Router			/v1/auth/sessions/all [get].
func (h *SessionsHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	byUser, err := h.SessionService.ListAllSessions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := authsdk.AllSessionsResponse{
		SessionsByUser: make(map[string][]authsdk.SessionResponse, len(byUser)),
		TotalUsers:     len(byUser),
	}
	for userID, sessions := range byUser {
		res.SessionsByUser[userID] = sessionResponses(sessions)
		res.TotalSessions += len(sessions)
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// HandleList godoc
//
//	@Summary		List a user's sessions
//	@Description	Requires manage:all_sessions, or manage:own_sessions when id is the caller.
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{array}		authsdk.SessionResponse
//	@Failure		403	{object}	httpx.APIError	"insufficient_permission"
//	@Router			/v1/auth/users/{id}/sessions [get].
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeTarget(w, r)
	if !ok {
		return
	}
	h.list(w, r, id)
}

// HandleRevoke godoc
//
//	@Summary		Revoke a user's sessions
//	@Description	Revokes every refresh token of the user. Requires manage:all_sessions, or manage:own_sessions when id is the caller.
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	authsdk.RevokeSessionsResponse
//	@Failure		403	{object}	httpx.APIError	"insufficient_permission"
//	@Failure		503	{object}	httpx.APIError	"dependency_unavailable"
//	@Router			/v1/auth/users/{id}/sessions [delete].
func (h *SessionsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeTarget(w, r)
	if !ok {
		return
	}

	n, err := h.SessionService.RevokeAll(r.Context(), id)
	if err != nil {
		slogx.FromContext(r.Context()).Error("revoke sessions failed", slogx.Err(err), "target_user_id", id)
		httpx.ErrDependencyUnavailable.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RevokeSessionsResponse{Message: "sessions revoked", Revoked: n})
}

func (h *SessionsHandler) authorizeTarget(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, _ := httpx.PrincipalFrom(r.Context())
	id := r.PathValue("id")
	if id == "" {
		httpx.ErrInvalidRequest.WriteError(w)
		return "", false
	}
	if !rbac.CanAccessResource(p, id, rbac.ManageAllSessions, rbac.ManageOwnSessions) {
		httpx.Forbidden(w, r, rbac.ManageAllSessions, rbac.ManageOwnSessions)
		return "", false
	}
	return id, true
}

func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request, userID string) {
	sessions, err := h.SessionService.ListSessions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponses(sessions))
}
