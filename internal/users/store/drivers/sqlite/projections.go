package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/users/domain"
)

type projectionsRepo struct {
	db *sql.DB
}

const projectionColumns = `id, username, email, rbac_role, created_at, updated_at,
	avatar_url, bio, theme, profile_updated_at, synced_from_auth, synced_at`

func scanProjection(row interface{ Scan(...any) error }) (domain.UserProjection, error) {
	var (
		p                              domain.UserProjection
		createdAt, updatedAt, syncedAt int64
		profileUpdatedAt               sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.Role, &createdAt, &updatedAt,
		&p.AvatarURL, &p.Bio, &p.Theme, &profileUpdatedAt, &p.SyncedFromAuth, &syncedAt)
	if err != nil {
		return domain.UserProjection{}, mapNotFound(err)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	p.SyncedAt = fromMillis(syncedAt)
	if profileUpdatedAt.Valid {
		t := fromMillis(profileUpdatedAt.Int64)
		p.ProfileUpdatedAt = &t
	}
	return p, nil
}

func (r *projectionsRepo) GetProjection(ctx context.Context, id string) (domain.UserProjection, error) {
	return scanProjection(r.db.QueryRowContext(ctx,
		`SELECT `+projectionColumns+` FROM user_projections WHERE id = ?`, id))
}

// The conflict branch only fires for newer events, or same-age events whose
// identity differs; a stale replay changes nothing and reports zero rows.
const upsertProjection = `
	INSERT INTO user_projections (id, username, email, rbac_role, created_at, updated_at,
		avatar_url, bio, theme, synced_from_auth, synced_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
	ON CONFLICT (id) DO UPDATE SET
		username         = excluded.username,
		email            = excluded.email,
		rbac_role        = excluded.rbac_role,
		created_at       = excluded.created_at,
		updated_at       = excluded.updated_at,
		synced_from_auth = 1,
		synced_at        = excluded.synced_at
	WHERE excluded.updated_at > user_projections.updated_at
	   OR (excluded.updated_at = user_projections.updated_at
	       AND (excluded.username  <> user_projections.username
	         OR excluded.email     <> user_projections.email
	         OR excluded.rbac_role <> user_projections.rbac_role))`

func (r *projectionsRepo) UpsertFromSync(ctx context.Context, p domain.UserProjection) (bool, error) {
	res, err := r.db.ExecContext(ctx, upsertProjection,
		p.ID, p.Username, p.Email, p.Role, toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
		p.AvatarURL, p.Bio, p.Theme, toMillis(p.SyncedAt),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *projectionsRepo) UpdateProfile(ctx context.Context, id string, u domain.ProfileUpdate, at time.Time) (domain.UserProjection, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_projections SET
			bio                = COALESCE(?, bio),
			avatar_url         = COALESCE(?, avatar_url),
			theme              = COALESCE(?, theme),
			profile_updated_at = ?
		WHERE id = ?`,
		nullString(u.Bio), nullString(u.AvatarURL), nullString(u.Theme), toMillis(at), id)
	if err != nil {
		return domain.UserProjection{}, mapCheck(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.UserProjection{}, err
	}
	if n == 0 {
		return domain.UserProjection{}, mapNotFound(sql.ErrNoRows)
	}
	return r.GetProjection(ctx, id)
}

func (r *projectionsRepo) CountProjections(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_projections`).Scan(&n)
	return n, err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
