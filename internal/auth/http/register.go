package http

import (
	"net/http"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/httpx"
)

// RegisterHandler serves POST /v1/auth/register.
type RegisterHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Register
//	@Description	Creates an account with the default "user" role and announces it on the user_events exchange.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"username, email, password"
//	@Success		201		{object}	authsdk.RegisterResponse	"the created user"
//	@Failure		400		{object}	httpx.APIError				"invalid_request or weak_password"
//	@Failure		409		{object}	httpx.APIError				"conflict"
//	@Failure		429		{object}	httpx.APIError				"rate_limit_exceeded"
//	@Router			/v1/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req, false); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		httpx.ErrInvalidRequest.WithDescription("username, email and password are required").WriteError(w)
		return
	}

	u, err := h.UserService.Register(r.Context(), service.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{User: userResponse(u)})
}
