package http

import (
	"net/http"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/rbac"
)

// MeHandler serves GET /v1/auth/me.
type MeHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Current user
//	@Description	Returns the caller's identity record with the role's expanded permissions and login statistics.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.MeResponse
//	@Failure		401	{object}	httpx.APIError	"token_expired, token_invalid or token_revoked"
//	@Failure		404	{object}	httpx.APIError	"not_found"
//	@Router			/v1/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, _ := httpx.PrincipalFrom(r.Context())

	u, err := h.UserService.Me(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(p.Role),
		Permissions: p.Permissions,
		LastLoginAt: u.LastLoginAt,
		LoginCount:  u.LoginCount,
	})
}

// RBACInfoHandler godoc
//
//	@Summary		Role and permission catalogue
//	@Description	Returns the caller's role and permissions, plus every role and permission the server knows.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.RBACInfoResponse
//	@Failure		401	{object}	httpx.APIError	"token_expired, token_invalid or token_revoked"
//	@Router			/v1/auth/rbac [get].
func RBACInfoHandler() http.HandlerFunc {
	roles := make([]string, len(rbac.Roles))
	for i, role := range rbac.Roles {
		roles[i] = role.String()
	}
	perms := make([]string, len(rbac.AllPermissions))
	for i, p := range rbac.AllPermissions {
		perms[i] = string(p)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := httpx.PrincipalFrom(r.Context())
		httpx.WriteJSON(w, http.StatusOK, authsdk.RBACInfoResponse{
			User:                 p,
			AvailableRoles:       roles,
			AvailablePermissions: perms,
		})
	}
}

// VerifyHandler godoc
//
//	@Summary		Verify access token
//	@Description	Lets gateways confirm a bearer token. The token has already passed signature, expiry and blacklist checks when this runs.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.VerifyResponse
//	@Failure		401	{object}	httpx.APIError	"token_expired, token_invalid or token_revoked"
//	@Router			/v1/auth/verify [get].
func VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := httpx.PrincipalFrom(r.Context())
		httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{Valid: true, User: p})
	}
}
