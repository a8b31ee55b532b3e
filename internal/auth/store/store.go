package store

import (
	"context"
	"errors"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so transactional and non-transactional access look
// the same to callers.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Inside fn only the Tx may be used: the sqlite
	// driver has a single connection and the outer Store would block on it.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user. Duplicate username or email returns
	// ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string, at time.Time) error

	// RecordLogin sets last_login_at and increments login_count.
	RecordLogin(ctx context.Context, userID string, at time.Time) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash looks a token up by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// ListActiveRefreshTokens returns the user's non-revoked, unexpired tokens,
	// newest first.
	ListActiveRefreshTokens(ctx context.Context, userID string, now time.Time) ([]domain.RefreshToken, error)

	// ListAllActiveRefreshTokens returns every non-revoked, unexpired token,
	// ordered by user then newest first.
	ListAllActiveRefreshTokens(ctx context.Context, now time.Time) ([]domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked=1. Unknown hashes are not an error.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllUserRefreshTokens revokes every non-revoked token of the user
	// and returns how many changed.
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) (int64, error)

	// DeleteRefreshToken removes a single record.
	DeleteRefreshToken(ctx context.Context, hash string) error

	// DeleteExpiredRefreshTokens removes records past expires_at.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
