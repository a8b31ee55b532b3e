package http

import (
	"net/http"
	"strings"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
)

// maxDeviceInfo truncates client-supplied device descriptions.
const maxDeviceInfo = 255

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	TokenService  *service.TokenService
	SecureCookies bool
}

// ServeHTTP godoc
//
//	@Summary		Login
//	@Description	Verifies a username and password and issues a 45 second access token plus a refresh token.
//	@Description	Any previous session of the user is revoked. The refresh token is also set as an HttpOnly cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"username, password, remember_me, device_info"
//	@Success		200		{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, refresh_token, user"
//	@Failure		400		{object}	httpx.APIError			"invalid_request"
//	@Failure		401		{object}	httpx.APIError			"invalid_credentials"
//	@Failure		429		{object}	httpx.APIError			"rate_limit_exceeded"
//	@Failure		503		{object}	httpx.APIError			"dependency_unavailable"
//	@Header			200		{string}	Set-Cookie				"refresh_token; HttpOnly; SameSite=Strict"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req, false); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		httpx.ErrInvalidRequest.WithDescription("username and password are required").WriteError(w)
		return
	}

	res, err := h.TokenService.Login(r.Context(), service.LoginRequest{
		Username:   strings.TrimSpace(req.Username),
		Password:   req.Password,
		RememberMe: req.RememberMe,
		DeviceInfo: deviceInfo(r, req.DeviceInfo),
		IPAddress:  httpx.IPKeyExtractor(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setRefreshCookie(w, res.Tokens.RefreshToken, res.Tokens.RefreshExpiresAt.Sub(h.TokenService.Now()), h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(res))
}

// deviceInfo falls back to the User-Agent.
func deviceInfo(r *http.Request, given string) string {
	d := strings.TrimSpace(given)
	if d == "" {
		d = r.UserAgent()
	}
	if len(d) > maxDeviceInfo {
		d = d[:maxDeviceInfo]
	}
	return d
}
