package repository

import (
	"context"
	"time"

	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/token/domain"
)

// Repository defines persistence for region-owned tokens. Every call names
// the home region so the operation runs against the regional database that
// owns the row; a token decoded for region X is only ever looked up in X.
// Consume and bulk revocation run inside the auth store's transactions and
// are exposed as Tx methods on the concrete repository.
type Repository interface {
	Create(ctx context.Context, r region.Region, t *domain.Token) error
	// GetByDigest returns the token for kind+digest, or nil if not found.
	GetByDigest(ctx context.Context, r region.Region, kind domain.Kind, digest string) (*domain.Token, error)
	// Revoke marks one session token revoked. Returns false when the row is
	// missing or already revoked.
	Revoke(ctx context.Context, r region.Region, digest string, now time.Time) (bool, error)
	// DeleteExpired removes rows whose expiry is before the cutoff. Used by the
	// background sweeper; validation never depends on it having run.
	DeleteExpired(ctx context.Context, r region.Region, before time.Time) (int64, error)
}
