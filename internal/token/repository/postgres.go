package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/token/domain"
)

type PostgresRepository struct {
	router *region.Router
}

// NewPostgresRepository returns a token repository that resolves each call's
// region through the router.
func NewPostgresRepository(router *region.Router) *PostgresRepository {
	return &PostgresRepository{router: router}
}

const tokenColumns = `digest, kind, region, user_id, code_digest, new_email, roles, remember, issued_at, expires_at, consumed_at, revoked_at`

// Create persists the token row. The token must have Digest, Kind, Region,
// and ExpiresAt set.
func (r *PostgresRepository) Create(ctx context.Context, rg region.Region, t *domain.Token) error {
	pool, err := r.router.Pool(rg)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO tokens (`+tokenColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.Digest, t.Kind, t.Region, t.UserID, t.CodeDigest, t.NewEmail, t.Roles,
		t.Remember, t.IssuedAt, t.ExpiresAt, t.ConsumedAt, t.RevokedAt,
	)
	return err
}

// GetByDigest returns the token for kind+digest, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByDigest(ctx context.Context, rg region.Region, kind domain.Kind, digest string) (*domain.Token, error) {
	pool, err := r.router.Pool(rg)
	if err != nil {
		return nil, err
	}
	row := pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE digest = $1 AND kind = $2`,
		digest, kind)
	var t domain.Token
	err = row.Scan(&t.Digest, &t.Kind, &t.Region, &t.UserID, &t.CodeDigest,
		&t.NewEmail, &t.Roles, &t.Remember, &t.IssuedAt, &t.ExpiresAt,
		&t.ConsumedAt, &t.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ConsumeTx atomically marks a single-use token consumed inside an existing
// transaction and returns the owning user. The WHERE guard on consumed_at and
// expires_at makes two racing consumers see exactly one success; the loser
// gets ok=false, not an error.
func (r *PostgresRepository) ConsumeTx(ctx context.Context, tx pgx.Tx, kind domain.Kind, digest string, now time.Time) (string, bool, error) {
	var userID string
	err := tx.QueryRow(ctx,
		`UPDATE tokens SET consumed_at = $3
		 WHERE digest = $1 AND kind = $2 AND consumed_at IS NULL AND expires_at > $3
		 RETURNING user_id`,
		digest, kind, now).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return userID, true, nil
}

// Revoke marks one session token revoked. A second revoke of the same token
// affects zero rows and returns false, which callers surface as an invalid
// token.
func (r *PostgresRepository) Revoke(ctx context.Context, rg region.Region, digest string, now time.Time) (bool, error) {
	pool, err := r.router.Pool(rg)
	if err != nil {
		return false, err
	}
	tag, err := pool.Exec(ctx,
		`UPDATE tokens SET revoked_at = $2
		 WHERE digest = $1 AND kind = $3 AND revoked_at IS NULL`,
		digest, now, domain.KindSession)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RevokeAllForUserTx revokes all live sessions for a user inside an existing
// transaction, sparing exceptDigest when non-empty.
func (r *PostgresRepository) RevokeAllForUserTx(ctx context.Context, tx pgx.Tx, userID, exceptDigest string, now time.Time) error {
	_, err := tx.Exec(ctx,
		`UPDATE tokens SET revoked_at = $2
		 WHERE user_id = $1 AND kind = $4 AND revoked_at IS NULL AND digest <> $3`,
		userID, now, exceptDigest, domain.KindSession)
	return err
}

// DeleteExpired removes token rows that expired before the cutoff.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, rg region.Region, before time.Time) (int64, error) {
	pool, err := r.router.Pool(rg)
	if err != nil {
		return 0, err
	}
	tag, err := pool.Exec(ctx, `DELETE FROM tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
