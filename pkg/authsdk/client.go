package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the identity service. It provides the
// unauthenticated operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// DeviceInfo is sent with login so sessions can be told apart in
	// session listings.
	DeviceInfo string
}

// NewSDKClient creates a new identity service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		DeviceInfo: "authsdk",
	}
}

// Register creates a new account with the default role.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", "", req)
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges a username and password for a token pair.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if req.DeviceInfo == "" {
		req.DeviceInfo = c.DeviceInfo
	}
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", "", req)
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new access token and a rotated
// refresh token. The presented refresh token stops working.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/refresh", "", RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout signs out. accessToken may be empty; the server then only revokes
// the given refresh token.
func (c *SDKClient) Logout(ctx context.Context, accessToken string, req LogoutRequest) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", accessToken, req)
	if err != nil {
		return err
	}

	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// AuthenticateWithPassword logs in and wraps the tokens in a Session that
// refreshes itself.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, req LoginRequest) (*Session, error) {
	tok, err := c.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return newSession(c, tok), nil
}

// NewSessionFromTokens creates a session from tokens obtained elsewhere.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	return newSession(c, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	})
}
