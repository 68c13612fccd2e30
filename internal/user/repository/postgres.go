package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/user/domain"
)

type PostgresRepository struct {
	router *region.Router
}

// NewPostgresRepository returns a user repository that resolves each call's
// region through the router.
func NewPostgresRepository(router *region.Router) *PostgresRepository {
	return &PostgresRepository{router: router}
}

const userColumns = `id, portal, email, handle, name, password_hash, status, preferred_language, region, roles, created_at, updated_at`

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, rg region.Region, id string) (*domain.User, error) {
	pool, err := r.router.Pool(rg)
	if err != nil {
		return nil, err
	}
	row := pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	var u domain.User
	err = row.Scan(&u.ID, &u.Portal, &u.Email, &u.Handle, &u.Name, &u.PasswordHash,
		&u.Status, &u.PreferredLanguage, &u.Region, &u.Roles, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create persists the user to its home region's database. The user must have
// ID, Portal, Region, and Handle set.
func (r *PostgresRepository) Create(ctx context.Context, rg region.Region, u *domain.User) error {
	pool, err := r.router.Pool(rg)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Portal, u.Email, u.Handle, u.Name, u.PasswordHash, u.Status,
		u.PreferredLanguage, u.Region, u.Roles, u.CreatedAt, u.UpdatedAt)
	return err
}

// HandleExists reports whether the handle is taken on the portal in this region.
func (r *PostgresRepository) HandleExists(ctx context.Context, rg region.Region, portal domain.Portal, handle string) (bool, error) {
	pool, err := r.router.Pool(rg)
	if err != nil {
		return false, err
	}
	var exists bool
	err = pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE portal = $1 AND handle = $2)`,
		portal, handle).Scan(&exists)
	return exists, err
}

// SetPasswordHashTx updates the credential hash inside an existing transaction.
func (r *PostgresRepository) SetPasswordHashTx(ctx context.Context, tx pgx.Tx, id, hash string, at time.Time) error {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, hash, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return errors.New("user not found")
	}
	return nil
}

// SetEmailTx swaps the account email inside an existing transaction.
func (r *PostgresRepository) SetEmailTx(ctx context.Context, tx pgx.Tx, id, email string, at time.Time) error {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET email = $2, updated_at = $3 WHERE id = $1`,
		id, email, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return errors.New("user not found")
	}
	return nil
}
