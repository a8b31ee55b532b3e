package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/store"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/blacklist"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/cryptox"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/idx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/jwtx"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/metrics"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// SessionService owns the refresh token lifecycle and the token blacklist.
// A user has at most one active refresh token: issuing a new one supersedes
// the others in the same transaction.
type SessionService struct {
	Store     store.Store
	Blacklist blacklist.Blacklist

	// MaxRefreshTTL is used as the blacklist TTL when a token's own expiry
	// is unknown.
	MaxRefreshTTL time.Duration

	Now func() time.Time
}

// NewSessionService wires a session service with the default clock.
func NewSessionService(st store.Store, bl blacklist.Blacklist) *SessionService {
	return &SessionService{
		Store:         st,
		Blacklist:     bl,
		MaxRefreshTTL: jwtx.RememberMeRefreshTokenTTL,
		Now:           time.Now,
	}
}

// IssueOptions describe a new refresh token.
type IssueOptions struct {
	TTL        time.Duration
	DeviceInfo string
	IPAddress  string
}

// CreateRefreshToken mints an opaque refresh token for userID and stores its
// fingerprint. Revoking the user's existing tokens is best effort: a failure
// there is logged and the new token is still issued. A failure storing the
// new token fails the call.
func (s *SessionService) CreateRefreshToken(
	ctx context.Context,
	userID string,
	opts IssueOptions,
) (string, domain.RefreshToken, error) {
	l := slogx.FromContext(ctx)
	now := s.Now()

	if opts.TTL <= 0 {
		opts.TTL = jwtx.DefaultRefreshTokenTTL
	}

	token, fingerprint, err := cryptox.GenerateRefreshToken()
	if err != nil {
		return "", domain.RefreshToken{}, err
	}

	rec := domain.RefreshToken{
		ID:         idx.NewAt(now).String(),
		UserID:     userID,
		TokenHash:  fingerprint,
		IssuedAt:   now,
		ExpiresAt:  now.Add(opts.TTL),
		DeviceInfo: opts.DeviceInfo,
		IPAddress:  opts.IPAddress,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID)
		if err != nil {
			l.Warn("could not revoke existing refresh tokens", slogx.Err(err))
		} else if n > 0 {
			metrics.SessionsRevoked.WithLabelValues("superseded").Add(float64(n))
		}

		if err := tx.RefreshTokens().CreateRefreshToken(ctx, rec); err != nil {
			return fmt.Errorf("%w: store refresh token: %v", ErrDependencyUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return "", domain.RefreshToken{}, err
	}

	l.Info("refresh token issued", "session_id", rec.ID, "expires_at", rec.ExpiresAt)
	return token, rec, nil
}

// Validate resolves a refresh token to its user. Blacklisted, unknown,
// revoked and expired tokens are ErrInvalidRefresh; an expired record, or
// one whose user no longer exists, is deleted on the way out.
func (s *SessionService) Validate(ctx context.Context, token string) (domain.User, domain.RefreshToken, error) {
	l := slogx.FromContext(ctx)
	if token == "" {
		return domain.User{}, domain.RefreshToken{}, ErrInvalidRefresh
	}

	revoked, err := s.Blacklist.Contains(ctx, token)
	if err != nil {
		return domain.User{}, domain.RefreshToken{}, fmt.Errorf("%w: blacklist: %v", ErrDependencyUnavailable, err)
	}
	if revoked {
		return domain.User{}, domain.RefreshToken{}, ErrInvalidRefresh
	}

	hash := cryptox.FingerprintToken(token)
	rec, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.RefreshToken{}, ErrInvalidRefresh
		}
		return domain.User{}, domain.RefreshToken{}, fmt.Errorf("%w: lookup refresh token: %v", ErrDependencyUnavailable, err)
	}

	if rec.Revoked {
		return domain.User{}, domain.RefreshToken{}, ErrInvalidRefresh
	}
	if !s.Now().Before(rec.ExpiresAt) {
		if err := s.Store.RefreshTokens().DeleteRefreshToken(ctx, hash); err != nil {
			l.Warn("could not delete expired refresh token", slogx.Err(err))
		}
		return domain.User{}, domain.RefreshToken{}, ErrInvalidRefresh
	}

	u, err := s.Store.Users().GetUserByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.Store.RefreshTokens().DeleteRefreshToken(ctx, hash)
			return domain.User{}, domain.RefreshToken{}, ErrInvalidRefresh
		}
		return domain.User{}, domain.RefreshToken{}, fmt.Errorf("%w: lookup user: %v", ErrDependencyUnavailable, err)
	}
	return u, rec, nil
}

// Revoke blacklists token immediately and then marks it revoked in storage.
// Both steps are attempted; their errors are joined.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	now := s.Now()
	hash := cryptox.FingerprintToken(token)

	ttl := s.MaxRefreshTTL
	rec, lookupErr := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if lookupErr == nil {
		ttl = rec.ExpiresAt.Sub(now)
	}

	var errs []error
	if err := s.Blacklist.AddKey(ctx, hash, ttl); err != nil {
		errs = append(errs, fmt.Errorf("blacklist refresh token: %w", err))
	}
	if lookupErr != nil && !errors.Is(lookupErr, store.ErrNotFound) {
		errs = append(errs, lookupErr)
	}
	if err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, hash); err != nil {
		errs = append(errs, fmt.Errorf("revoke refresh token: %w", err))
	} else if lookupErr == nil && !rec.Revoked {
		metrics.SessionsRevoked.WithLabelValues("revoked").Inc()
	}
	return errors.Join(errs...)
}

// RevokeAll blacklists every active refresh token of userID and marks them
// all revoked. It returns how many tokens were active.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) (int, error) {
	now := s.Now()

	active, err := s.Store.RefreshTokens().ListActiveRefreshTokens(ctx, userID, now)
	if err != nil {
		return 0, fmt.Errorf("list active refresh tokens: %w", err)
	}

	var errs []error
	for _, t := range active {
		if err := s.Blacklist.AddKey(ctx, t.TokenHash, t.ExpiresAt.Sub(now)); err != nil {
			errs = append(errs, fmt.Errorf("blacklist refresh token: %w", err))
		}
	}

	if _, err := s.Store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("revoke refresh tokens: %w", err))
	}
	metrics.SessionsRevoked.WithLabelValues("revoke_all").Add(float64(len(active)))

	slogx.FromContext(ctx).Info("revoked all sessions", "user_id", userID, "count", len(active))
	return len(active), errors.Join(errs...)
}

// IsBlacklisted reports whether token has been revoked early.
func (s *SessionService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.Blacklist.Contains(ctx, token)
}

// BlacklistAccessToken revokes an access token for the rest of its lifetime.
func (s *SessionService) BlacklistAccessToken(ctx context.Context, token string, claims jwtx.Claims) error {
	return s.Blacklist.Add(ctx, token, claims.RemainingTTL(s.Now()))
}

// ListSessions returns the user's active sessions, newest first.
func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	active, err := s.Store.RefreshTokens().ListActiveRefreshTokens(ctx, userID, s.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrDependencyUnavailable, err)
	}
	out := make([]domain.Session, 0, len(active))
	for _, t := range active {
		out = append(out, domain.SessionOf(t))
	}
	return out, nil
}

// ListAllSessions returns every active session grouped by user ID.
func (s *SessionService) ListAllSessions(ctx context.Context) (map[string][]domain.Session, error) {
	active, err := s.Store.RefreshTokens().ListAllActiveRefreshTokens(ctx, s.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: list all sessions: %v", ErrDependencyUnavailable, err)
	}
	out := make(map[string][]domain.Session)
	for _, t := range active {
		out[t.UserID] = append(out[t.UserID], domain.SessionOf(t))
	}
	return out, nil
}

// CleanupExpired deletes expired refresh token records. Safe to run
// concurrently with itself.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, s.Now())
}
