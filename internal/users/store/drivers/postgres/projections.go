package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/domain"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/store"
)

type projectionsRepo struct {
	pool *pgxpool.Pool
}

const projectionColumns = `id, username, email, rbac_role, created_at, updated_at,
	avatar_url, bio, theme, profile_updated_at, synced_from_auth, synced_at`

func scanProjection(row pgx.Row) (domain.UserProjection, error) {
	var p domain.UserProjection
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.Role, &p.CreatedAt, &p.UpdatedAt,
		&p.AvatarURL, &p.Bio, &p.Theme, &p.ProfileUpdatedAt, &p.SyncedFromAuth, &p.SyncedAt)
	if err != nil {
		return domain.UserProjection{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	p.SyncedAt = p.SyncedAt.UTC()
	if p.ProfileUpdatedAt != nil {
		t := p.ProfileUpdatedAt.UTC()
		p.ProfileUpdatedAt = &t
	}
	return p, nil
}

func (r *projectionsRepo) GetProjection(ctx context.Context, id string) (domain.UserProjection, error) {
	const op = "postgres.GetProjection"

	p, err := scanProjection(r.pool.QueryRow(ctx,
		`SELECT `+projectionColumns+` FROM user_projections WHERE id = $1`, id))
	if err != nil {
		return domain.UserProjection{}, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// A stale replay matches no row in the conflict branch, so the command tag
// reports zero rows.
const upsertProjection = `
	INSERT INTO user_projections (id, username, email, rbac_role, created_at, updated_at,
		avatar_url, bio, theme, synced_from_auth, synced_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10)
	ON CONFLICT (id) DO UPDATE SET
		username         = EXCLUDED.username,
		email            = EXCLUDED.email,
		rbac_role        = EXCLUDED.rbac_role,
		created_at       = EXCLUDED.created_at,
		updated_at       = EXCLUDED.updated_at,
		synced_from_auth = TRUE,
		synced_at        = EXCLUDED.synced_at
	WHERE EXCLUDED.updated_at > user_projections.updated_at
	   OR (EXCLUDED.updated_at = user_projections.updated_at
	       AND (EXCLUDED.username, EXCLUDED.email, EXCLUDED.rbac_role)
	           IS DISTINCT FROM
	           (user_projections.username, user_projections.email, user_projections.rbac_role))`

func (r *projectionsRepo) UpsertFromSync(ctx context.Context, p domain.UserProjection) (bool, error) {
	const op = "postgres.UpsertFromSync"

	tag, err := r.pool.Exec(ctx, upsertProjection,
		p.ID, p.Username, p.Email, p.Role, p.CreatedAt, p.UpdatedAt,
		p.AvatarURL, p.Bio, p.Theme, p.SyncedAt,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return tag.RowsAffected() > 0, nil
}

func (r *projectionsRepo) UpdateProfile(ctx context.Context, id string, u domain.ProfileUpdate, at time.Time) (domain.UserProjection, error) {
	const op = "postgres.UpdateProfile"

	p, err := scanProjection(r.pool.QueryRow(ctx, `
		UPDATE user_projections SET
			bio                = COALESCE($2, bio),
			avatar_url         = COALESCE($3, avatar_url),
			theme              = COALESCE($4, theme),
			profile_updated_at = $5
		WHERE id = $1
		RETURNING `+projectionColumns,
		id, u.Bio, u.AvatarURL, u.Theme, at,
	))
	if err != nil {
		return domain.UserProjection{}, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

func (r *projectionsRepo) CountProjections(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_projections`).Scan(&n)
	return n, err
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
		return store.ErrInvalid
	}
	return err
}
