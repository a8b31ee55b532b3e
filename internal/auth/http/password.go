package http

import (
	"net/http"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
)

// PasswordHandler serves POST /v1/auth/password.
type PasswordHandler struct {
	UserService   *service.UserService
	SecureCookies bool
}

// ServeHTTP godoc
//
//	@Summary		Change password
//	@Description	Verifies the current password, stores the new one and signs the user out of every session, including the calling access token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.ChangePasswordRequest	true	"current_password, new_password"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	httpx.APIError	"invalid_request or weak_password"
//	@Failure		401		{object}	httpx.APIError	"invalid_credentials or token errors"
//	@Router			/v1/auth/password [post].
func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := httpx.PrincipalFrom(ctx)
	claims, _ := httpx.ClaimsFrom(ctx)
	token, _ := httpx.BearerFrom(ctx)

	var req authsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(r, &req, false); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.ErrInvalidRequest.WithDescription("current_password and new_password are required").WriteError(w)
		return
	}

	err := h.UserService.ChangePassword(ctx, service.ChangePasswordRequest{
		UserID:          p.ID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		AccessToken:     token,
		Claims:          claims,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	clearRefreshCookie(w, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "password changed, please log in again"})
}
