package http

import (
	"net/http"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// LogoutHandler serves POST /v1/auth/logout. It runs behind
// OptionalAuthorize and answers 200 whatever it managed to revoke, so a
// client can always discard its tokens.
type LogoutHandler struct {
	TokenService  *service.TokenService
	SecureCookies bool
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Blacklists the bearer access token (if any) and revokes the refresh token.
//	@Description	When the caller is authenticated and sends logout_all, or sends no refresh token, every session of the user is revoked.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.LogoutRequest	false	"refresh_token, logout_all"
//	@Success		200		{object}	authsdk.MessageResponse	"always"
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.LogoutRequest
	if err := httpx.DecodeJSON(r, &req, true); err != nil {
		slogx.FromContext(ctx).Debug("ignoring malformed logout body", slogx.Err(err))
		req = authsdk.LogoutRequest{}
	}

	in := service.LogoutRequest{
		RefreshToken: refreshFromRequest(r, req.RefreshToken),
		All:          req.LogoutAll,
	}
	if claims, ok := httpx.ClaimsFrom(ctx); ok {
		in.Claims = &claims
		in.AccessToken, _ = httpx.BearerFrom(ctx)
	}

	h.TokenService.Logout(ctx, in)

	clearRefreshCookie(w, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "logged out"})
}
