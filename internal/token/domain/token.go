package domain

import (
	"time"

	"talentgrid/backend/internal/region"
)

// Kind identifies the lifecycle rules a token row obeys.
type Kind string

const (
	// KindSignup is single-use, bare (no region prefix), bound to an email.
	KindSignup Kind = "signup"
	// KindTFA carries a 6-digit code digest; not burned by wrong-code attempts.
	KindTFA Kind = "tfa"
	// KindSession is revocable (logout, password change/reset, email change).
	KindSession Kind = "session"
	// KindPasswordReset is single-use; consumption revokes all sessions.
	KindPasswordReset Kind = "password_reset"
	// KindEmailChange is single-use and bound to the candidate email.
	KindEmailChange Kind = "email_change"
)

// Token is a token row in a regional database. Only the SHA-256 digest of the
// raw secret is stored.
type Token struct {
	Digest     string
	Kind       Kind
	Region     region.Region
	UserID     string
	CodeDigest string   // TFA only: digest of the 6-digit code
	NewEmail   string   // email change only: candidate address
	Roles      []string // session only: role set carried by the session
	Remember   bool     // session only: issued with the long remember-me TTL
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time // nil until a single-use kind is consumed
	RevokedAt  *time.Time // nil until a session is revoked
}

// Expired reports whether the token is past its expiry at now. Validation
// relies on this check, never on the background sweep.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Live reports whether the token is still usable at now: not expired, not
// consumed, not revoked.
func (t *Token) Live(now time.Time) bool {
	return !t.Expired(now) && t.ConsumedAt == nil && t.RevokedAt == nil
}
