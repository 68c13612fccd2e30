package repository

import (
	"context"
	"errors"
	"time"

	"talentgrid/backend/internal/directory/domain"
	userdomain "talentgrid/backend/internal/user/domain"
)

var (
	// ErrEmailTaken is returned when an email claim loses to an existing
	// directory row (signup duplicate or email-change race).
	ErrEmailTaken = errors.New("email already in directory")
	// ErrTokenSpent is returned when a signup token is consumed, expired, or
	// unknown at completion time.
	ErrTokenSpent = errors.New("signup token spent or expired")
)

// Repository defines persistence for the global directory database.
type Repository interface {
	// ApprovedDomain returns the approval row for portal+domain, or nil if the
	// domain is not approved.
	ApprovedDomain(ctx context.Context, portal userdomain.Portal, domain string) (*domain.ApprovedDomain, error)
	// LookupEmail returns the directory entry owning portal+email, or nil.
	LookupEmail(ctx context.Context, portal userdomain.Portal, email string) (*domain.Entry, error)
	CreateSignupToken(ctx context.Context, t *domain.SignupToken) error
	// GetSignupToken returns the signup token for digest, or nil if not found.
	GetSignupToken(ctx context.Context, digest string) (*domain.SignupToken, error)
	// CompleteSignup atomically consumes the signup token and claims the email
	// in one transaction. Returns ErrTokenSpent when the token cannot be
	// consumed and ErrEmailTaken when the directory row loses the unique claim.
	CompleteSignup(ctx context.Context, digest string, e *domain.Entry, now time.Time) error
	// ClaimEmail points the user's directory row at newEmail. The unique index
	// on (portal, email) makes the claim atomic; the loser of a race gets
	// ErrEmailTaken. Returns the previous email for compensation.
	ClaimEmail(ctx context.Context, portal userdomain.Portal, userID, newEmail string, at time.Time) (string, error)
	// ReleaseEmail deletes the directory row for portal+email (compensation
	// when a regional insert fails after a signup claim).
	ReleaseEmail(ctx context.Context, portal userdomain.Portal, email string) error
	DeleteExpiredSignupTokens(ctx context.Context, before time.Time) (int64, error)
}
