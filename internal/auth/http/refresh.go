package http

import (
	"net/http"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
)

// RefreshHandler serves POST /v1/auth/refresh. The token comes from the
// request body or, failing that, the refresh_token cookie.
type RefreshHandler struct {
	TokenService  *service.TokenService
	SecureCookies bool
}

// ServeHTTP godoc
//
//	@Summary		Refresh
//	@Description	Exchanges a refresh token for a new access token and a rotated refresh token valid for 10 minutes.
//	@Description	The presented refresh token is revoked.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	false	"refresh_token (optional when the cookie is sent)"
//	@Success		200		{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, refresh_token, user"
//	@Failure		401		{object}	httpx.APIError			"token_invalid"
//	@Failure		429		{object}	httpx.APIError			"rate_limit_exceeded"
//	@Failure		503		{object}	httpx.APIError			"dependency_unavailable"
//	@Router			/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(r, &req, true); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	token := refreshFromRequest(r, req.RefreshToken)
	if token == "" {
		httpx.ErrTokenInvalid.WithDescription("a refresh token is required").WriteError(w)
		return
	}

	res, err := h.TokenService.Refresh(r.Context(), token, "", httpx.IPKeyExtractor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setRefreshCookie(w, res.Tokens.RefreshToken, res.Tokens.RefreshExpiresAt.Sub(h.TokenService.Now()), h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(res))
}
