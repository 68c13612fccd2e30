package domain

import (
	"time"

	"talentgrid/backend/internal/region"
	userdomain "talentgrid/backend/internal/user/domain"
)

// ApprovedDomain is an email domain cleared for signup on a portal. The DNS
// ownership proof that gets a domain approved happens outside this service;
// rows here carry the home region new accounts of that domain are assigned.
type ApprovedDomain struct {
	Domain    string
	Portal    userdomain.Portal
	Region    region.Region
	CreatedAt time.Time
}

// Entry is an email directory row in the global database. It is the single
// source of truth for which region and account own an address; the unique
// index on (portal, email) is what arbitrates signup and email-change races.
type Entry struct {
	Portal    userdomain.Portal
	Email     string
	Region    region.Region
	UserID    string
	CreatedAt time.Time
}

// SignupToken is a single-use, bare (no region prefix) token bound to an
// email before any account exists. Stored in the global database because the
// subject has no home region yet.
type SignupToken struct {
	Digest     string
	Portal     userdomain.Portal
	Email      string
	Domain     string
	Region     region.Region // home region the completed account will get
	Language   string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t *SignupToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
