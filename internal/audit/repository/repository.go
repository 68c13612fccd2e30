package repository

import (
	"context"

	"talentgrid/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs. Entries live in the global
// directory database so events from every region land in one place.
type Repository interface {
	ListByPortal(ctx context.Context, portal string, limit, offset int32) ([]*domain.AuditLog, error)
	Create(ctx context.Context, a *domain.AuditLog) error
}
