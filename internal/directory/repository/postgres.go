package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"talentgrid/backend/internal/directory/domain"
	userdomain "talentgrid/backend/internal/user/domain"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a directory repository over the global
// directory database pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ApprovedDomain returns the approval row for portal+domain, or nil if not approved.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) ApprovedDomain(ctx context.Context, portal userdomain.Portal, name string) (*domain.ApprovedDomain, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT domain, portal, region, created_at FROM approved_domains
		 WHERE portal = $1 AND domain = $2`,
		portal, name)
	var d domain.ApprovedDomain
	err := row.Scan(&d.Domain, &d.Portal, &d.Region, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// CreateApprovedDomain inserts an approval row; used by seeding and the
// (external) domain-approval admin flow.
func (r *PostgresRepository) CreateApprovedDomain(ctx context.Context, d *domain.ApprovedDomain) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO approved_domains (domain, portal, region, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (portal, domain) DO NOTHING`,
		d.Domain, d.Portal, d.Region, d.CreatedAt)
	return err
}

// CreateEntry inserts a directory row directly, bypassing the signup flow;
// used by seeding to bootstrap accounts.
func (r *PostgresRepository) CreateEntry(ctx context.Context, e *domain.Entry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO email_directory (portal, email, region, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (portal, email) DO NOTHING`,
		e.Portal, e.Email, e.Region, e.UserID, e.CreatedAt)
	return err
}

// LookupEmail returns the directory entry owning portal+email, or nil.
func (r *PostgresRepository) LookupEmail(ctx context.Context, portal userdomain.Portal, email string) (*domain.Entry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT portal, email, region, user_id, created_at FROM email_directory
		 WHERE portal = $1 AND email = $2`,
		portal, email)
	var e domain.Entry
	err := row.Scan(&e.Portal, &e.Email, &e.Region, &e.UserID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// CreateSignupToken persists a signup token row.
func (r *PostgresRepository) CreateSignupToken(ctx context.Context, t *domain.SignupToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO signup_tokens (digest, portal, email, domain, region, language, issued_at, expires_at, consumed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.Digest, t.Portal, t.Email, t.Domain, t.Region, t.Language,
		t.IssuedAt, t.ExpiresAt, t.ConsumedAt)
	return err
}

// GetSignupToken returns the signup token for digest, or nil if not found.
func (r *PostgresRepository) GetSignupToken(ctx context.Context, digest string) (*domain.SignupToken, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT digest, portal, email, domain, region, language, issued_at, expires_at, consumed_at
		 FROM signup_tokens WHERE digest = $1`,
		digest)
	var t domain.SignupToken
	err := row.Scan(&t.Digest, &t.Portal, &t.Email, &t.Domain, &t.Region,
		&t.Language, &t.IssuedAt, &t.ExpiresAt, &t.ConsumedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// CompleteSignup consumes the signup token and claims the email in one
// transaction. The guarded UPDATE and the unique index on (portal, email)
// leave exactly one winner under concurrent completions.
func (r *PostgresRepository) CompleteSignup(ctx context.Context, digest string, e *domain.Entry, now time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE signup_tokens SET consumed_at = $2
		 WHERE digest = $1 AND consumed_at IS NULL AND expires_at > $2`,
		digest, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrTokenSpent
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO email_directory (portal, email, region, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.Portal, e.Email, e.Region, e.UserID, e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return err
	}
	return tx.Commit(ctx)
}

// ClaimEmail points the user's directory row at newEmail and returns the
// previous address. The unique index arbitrates races: the loser observes
// ErrEmailTaken.
func (r *PostgresRepository) ClaimEmail(ctx context.Context, portal userdomain.Portal, userID, newEmail string, at time.Time) (string, error) {
	var old string
	err := r.pool.QueryRow(ctx,
		`UPDATE email_directory d SET email = $3
		 FROM (SELECT email FROM email_directory WHERE portal = $1 AND user_id = $2) prev
		 WHERE d.portal = $1 AND d.user_id = $2
		 RETURNING prev.email`,
		portal, userID, newEmail).Scan(&old)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", ErrEmailTaken
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errors.New("no directory entry for user")
		}
		return "", err
	}
	return old, nil
}

// ReleaseEmail deletes the directory row for portal+email.
func (r *PostgresRepository) ReleaseEmail(ctx context.Context, portal userdomain.Portal, email string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM email_directory WHERE portal = $1 AND email = $2`,
		portal, email)
	return err
}

// DeleteExpiredSignupTokens removes signup tokens that expired before the cutoff.
func (r *PostgresRepository) DeleteExpiredSignupTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM signup_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
