package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/cryptox"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

type TokenService struct {
	Credentials *CredentialService
	Sessions    *SessionService
	Minter      jwtx.Minter

	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	RememberMeTTL     time.Duration
	RotatedRefreshTTL time.Duration

	Now func() time.Time
}

// LoginRequest is the password grant input.
type LoginRequest struct {
	Username   string
	Password   string
	RememberMe bool
	DeviceInfo string
	IPAddress  string
}

// AuthResult is returned by Login and Refresh.
type AuthResult struct {
	Tokens domain.TokenPair
	User   domain.User
}

// Login verifies credentials and issues an access token plus a refresh
// token that supersedes the user's previous session. Login statistics and
// hash upgrades are best effort.
func (s *TokenService) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Credentials.Verify(ctx, req.Username, req.Password)
	if err != nil {
		return AuthResult{}, err
	}
	ctx = slogx.With(ctx, "user_id", u.ID)

	ttl := s.RefreshTTL
	if req.RememberMe {
		ttl = s.RememberMeTTL
	}

	pair, err := s.issue(ctx, u, IssueOptions{TTL: ttl, DeviceInfo: req.DeviceInfo, IPAddress: req.IPAddress})
	if err != nil {
		return AuthResult{}, err
	}

	now := s.Now()
	if err := s.Credentials.Store.Users().RecordLogin(ctx, u.ID, now); err != nil {
		l.Warn("could not record login", slogx.Err(err), "user_id", u.ID)
	} else {
		u.LastLoginAt = &now
		u.LoginCount++
	}

	if cryptox.NeedsRehash(u.PasswordHash) {
		if hash, err := cryptox.HashPassword(req.Password); err == nil {
			if err := s.Credentials.Store.Users().UpdatePasswordHash(ctx, u.ID, hash, now); err != nil {
				l.Warn("could not upgrade password hash", slogx.Err(err), "user_id", u.ID)
			}
		}
	}

	l.Info("login succeeded", "user_id", u.ID, "remember_me", req.RememberMe)
	return AuthResult{Tokens: pair, User: u}, nil
}

// Refresh exchanges a valid refresh token for a new access token and a
// short-lived rotated refresh token. The presented token is revoked.
func (s *TokenService) Refresh(ctx context.Context, refreshToken, deviceInfo, ip string) (AuthResult, error) {
	l := slogx.FromContext(ctx)

	u, old, err := s.Sessions.Validate(ctx, refreshToken)
	if err != nil {
		return AuthResult{}, err
	}
	ctx = slogx.With(ctx, "user_id", u.ID)

	if deviceInfo == "" {
		deviceInfo = old.DeviceInfo
	}
	pair, err := s.issue(ctx, u, IssueOptions{TTL: s.RotatedRefreshTTL, DeviceInfo: deviceInfo, IPAddress: ip})
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.Sessions.Revoke(ctx, refreshToken); err != nil {
		l.Warn("could not revoke rotated refresh token", slogx.Err(err))
	}
	return AuthResult{Tokens: pair, User: u}, nil
}

func (s *TokenService) issue(ctx context.Context, u domain.User, opts IssueOptions) (domain.TokenPair, error) {
	access, err := s.Minter.Mint(jwtx.NewAccessClaims(u.ID, u.Username, u.Role), s.AccessTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("mint access token: %w", err)
	}

	refresh, rec, err := s.Sessions.CreateRefreshToken(ctx, u.ID, opts)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        s.AccessTTL,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

// LogoutRequest carries whatever the client presented. Every field is
// optional.
type LogoutRequest struct {
	AccessToken  string
	Claims       *jwtx.Claims
	RefreshToken string
	All          bool
}

// Logout revokes what it can and never fails: errors are logged. When the
// caller is known and asked for it, or gave no refresh token, every session
// of the user is revoked.
func (s *TokenService) Logout(ctx context.Context, req LogoutRequest) {
	l := slogx.FromContext(ctx)

	if req.AccessToken != "" && req.Claims != nil {
		if err := s.Sessions.BlacklistAccessToken(ctx, req.AccessToken, *req.Claims); err != nil {
			l.Error("could not blacklist access token", slogx.Err(err))
		}
	}

	if req.RefreshToken != "" {
		if err := s.Sessions.Revoke(ctx, req.RefreshToken); err != nil {
			l.Error("could not revoke refresh token", slogx.Err(err))
		}
	}

	if req.Claims != nil && (req.All || req.RefreshToken == "") {
		if _, err := s.Sessions.RevokeAll(ctx, req.Claims.UserID); err != nil {
			l.Error("could not revoke all sessions", slogx.Err(err))
		}
	}
	l.Info("logout completed", "all", req.All)
}
