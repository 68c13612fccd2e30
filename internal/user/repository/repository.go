package repository

import (
	"context"

	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/user/domain"
)

// Repository defines persistence for users. Every call names the home region
// so the operation runs against the regional database that owns the account.
// Credential and email updates run inside the auth store's transactions and
// are exposed as Tx methods on the concrete repository.
type Repository interface {
	GetByID(ctx context.Context, r region.Region, id string) (*domain.User, error)
	Create(ctx context.Context, r region.Region, u *domain.User) error
	// HandleExists reports whether a handle is already taken on the portal.
	HandleExists(ctx context.Context, r region.Region, portal domain.Portal, handle string) (bool, error)
}
