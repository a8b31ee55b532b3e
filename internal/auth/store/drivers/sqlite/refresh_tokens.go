package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

const refreshTokenColumns = `id, user_id, token_hash, issued_at, expires_at, revoked, device_info, ip_address`

func scanRefreshToken(row interface{ Scan(...any) error }) (domain.RefreshToken, error) {
	var (
		t                   domain.RefreshToken
		issuedAt, expiresAt int64
	)
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &issuedAt, &expiresAt,
		&t.Revoked, &t.DeviceInfo, &t.IPAddress)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.IssuedAt = fromMillis(issuedAt)
	t.ExpiresAt = fromMillis(expiresAt)
	return t, nil
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, issued_at, expires_at, revoked, device_info, ip_address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, toMillis(t.IssuedAt), toMillis(t.ExpiresAt),
		t.Revoked, t.DeviceInfo, t.IPAddress,
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	return scanRefreshToken(r.db.QueryRowContext(ctx,
		`SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token_hash = ?`, hash))
}

func (r *refreshTokensRepo) ListActiveRefreshTokens(
	ctx context.Context,
	userID string,
	now time.Time,
) ([]domain.RefreshToken, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+refreshTokenColumns+` FROM refresh_tokens
		WHERE user_id = ? AND revoked = 0 AND expires_at > ?
		ORDER BY issued_at DESC`,
		userID, toMillis(now))
	if err != nil {
		return nil, err
	}
	return collectRefreshTokens(rows)
}

func (r *refreshTokensRepo) ListAllActiveRefreshTokens(ctx context.Context, now time.Time) ([]domain.RefreshToken, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+refreshTokenColumns+` FROM refresh_tokens
		WHERE revoked = 0 AND expires_at > ?
		ORDER BY user_id, issued_at DESC`,
		toMillis(now))
	if err != nil {
		return nil, err
	}
	return collectRefreshTokens(rows)
}

func collectRefreshTokens(rows *sql.Rows) ([]domain.RefreshToken, error) {
	defer rows.Close()

	var out []domain.RefreshToken
	for rows.Next() {
		t, err := scanRefreshToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?`, hash)
	return err
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = ?`, hash)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
