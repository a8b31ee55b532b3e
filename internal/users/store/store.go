package store

import (
	"context"
	"errors"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/domain"
)

var (
	ErrNotFound = errors.New("store: not found")

	// ErrInvalid reports a value rejected by a schema constraint.
	ErrInvalid = errors.New("store: invalid value")
)

// Store is the projection store. The sqlite driver serves development and
// tests; postgres serves production.
type Store interface {
	Projections() Projections

	ApplyMigrations() error
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Projections interface {
	GetProjection(ctx context.Context, id string) (domain.UserProjection, error)

	// UpsertFromSync inserts p, or refreshes the identity fields of an
	// existing record when p.UpdatedAt is newer, or equal with different
	// identity content. Profile fields of an existing record are never
	// touched. It reports whether a row was written.
	UpsertFromSync(ctx context.Context, p domain.UserProjection) (bool, error)

	// UpdateProfile applies u and stamps profile_updated_at. Unknown ids
	// return ErrNotFound.
	UpdateProfile(ctx context.Context, id string, u domain.ProfileUpdate, at time.Time) (domain.UserProjection, error)

	CountProjections(ctx context.Context) (int64, error)
}
