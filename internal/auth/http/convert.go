package http

import (
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/service"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/authsdk"
)

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

func tokenResponse(res service.AuthResult) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:  res.Tokens.AccessToken,
		TokenType:    res.Tokens.TokenType,
		ExpiresIn:    int(res.Tokens.ExpiresIn.Seconds()),
		RefreshToken: res.Tokens.RefreshToken,
		User:         userResponse(res.User),
	}
}

func sessionResponses(in []domain.Session) []authsdk.SessionResponse {
	out := make([]authsdk.SessionResponse, 0, len(in))
	for _, s := range in {
		out = append(out, authsdk.SessionResponse{
			ID:         s.ID,
			DeviceInfo: s.DeviceInfo,
			IPAddress:  s.IPAddress,
			CreatedAt:  s.CreatedAt,
			ExpiresAt:  s.ExpiresAt,
		})
	}
	return out
}
