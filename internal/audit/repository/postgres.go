package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"talentgrid/backend/internal/audit/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns an audit log repository backed by the
// directory database pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListByPortal returns audit logs for the given portal, newest first,
// paginated by limit and offset.
func (r *PostgresRepository) ListByPortal(ctx context.Context, portal string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, portal, region, user_id, action, ip, metadata, created_at
		FROM audit_logs WHERE portal = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, portal, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.Portal, &a.Region, &a.UserID, &a.Action, &a.IP, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Create persists the audit log. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, portal, region, user_id, action, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Portal, a.Region, a.UserID, a.Action, a.IP, a.Metadata, a.CreatedAt)
	return err
}
