// Package service implements the authentication state machine shared by the
// Hub, Org, Agency, and Admin portals: signup with domain approval, password
// login, TFA verification, session issuance and revocation, password reset,
// and email change. Handlers stay thin; every rule about token ordering,
// expiry, single use, and region routing lives here.
package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	directorydomain "talentgrid/backend/internal/directory/domain"
	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/security"
	tokendomain "talentgrid/backend/internal/token/domain"
	userdomain "talentgrid/backend/internal/user/domain"
)

// DirectoryRepo is the slice of the global directory the auth service needs.
type DirectoryRepo interface {
	ApprovedDomain(ctx context.Context, portal userdomain.Portal, domain string) (*directorydomain.ApprovedDomain, error)
	LookupEmail(ctx context.Context, portal userdomain.Portal, email string) (*directorydomain.Entry, error)
	CreateSignupToken(ctx context.Context, t *directorydomain.SignupToken) error
	GetSignupToken(ctx context.Context, digest string) (*directorydomain.SignupToken, error)
	CompleteSignup(ctx context.Context, digest string, e *directorydomain.Entry, now time.Time) error
	ClaimEmail(ctx context.Context, portal userdomain.Portal, userID, newEmail string, at time.Time) (string, error)
	ReleaseEmail(ctx context.Context, portal userdomain.Portal, email string) error
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, r region.Region, id string) (*userdomain.User, error)
	Create(ctx context.Context, r region.Region, u *userdomain.User) error
	HandleExists(ctx context.Context, r region.Region, portal userdomain.Portal, handle string) (bool, error)
}

// TokenRepo is the minimal token repository needed by the auth service.
type TokenRepo interface {
	Create(ctx context.Context, r region.Region, t *tokendomain.Token) error
	GetByDigest(ctx context.Context, r region.Region, kind tokendomain.Kind, digest string) (*tokendomain.Token, error)
	Revoke(ctx context.Context, r region.Region, digest string, now time.Time) (bool, error)
}

// TxStore runs the completions whose side effects must be all-or-nothing
// within one regional transaction.
type TxStore interface {
	// CompletePasswordReset consumes the reset token, sets the new hash, and
	// revokes every session. ok is false when the token cannot be consumed.
	CompletePasswordReset(ctx context.Context, r region.Region, digest, newHash string, now time.Time) (userID string, ok bool, err error)
	// ChangePassword sets the new hash and revokes every session except the
	// caller's.
	ChangePassword(ctx context.Context, r region.Region, userID, newHash, keepDigest string, now time.Time) error
	// CompleteEmailChange consumes the email-change token, swaps the user's
	// email, and revokes every session. ok is false when the token cannot be
	// consumed.
	CompleteEmailChange(ctx context.Context, r region.Region, digest, newEmail string, now time.Time) (userID string, ok bool, err error)
}

// Mailer delivers transactional mail. Sends are fire-and-forget: failures are
// the mailer's to log and never roll back token issuance.
type Mailer interface {
	SignupLink(ctx context.Context, email, language, token string, expiresAt time.Time)
	TFACode(ctx context.Context, email, language, code string)
	PasswordResetLink(ctx context.Context, email, language, token string)
	EmailChangeLink(ctx context.Context, email, language, token string)
}

// AuditLogger records best-effort audit events for auth operations.
type AuditLogger interface {
	LogEvent(ctx context.Context, portal, region, userID, action, metadata string)
}

// TTLConfig holds the expiry window of each token kind. CI environments use
// windows of seconds; production uses hours.
type TTLConfig struct {
	Signup          time.Duration
	TFA             time.Duration
	Session         time.Duration
	RememberSession time.Duration
	PasswordReset   time.Duration
	EmailChange     time.Duration
}

// Service orchestrates the signup → TFA → session pipeline and the password
// reset / email change pipelines for all portals.
type Service struct {
	directory DirectoryRepo
	users     UserRepo
	tokens    TokenRepo
	store     TxStore
	hasher    *security.Hasher
	mailer    Mailer
	audit     AuditLogger
	ttl       TTLConfig
	log       *slog.Logger
	now       func() time.Time
}

// New returns a Service with the given dependencies. audit may be nil.
func New(
	directory DirectoryRepo,
	users UserRepo,
	tokens TokenRepo,
	store TxStore,
	hasher *security.Hasher,
	mailer Mailer,
	audit AuditLogger,
	ttl TTLConfig,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		directory: directory,
		users:     users,
		tokens:    tokens,
		store:     store,
		hasher:    hasher,
		mailer:    mailer,
		audit:     audit,
		ttl:       ttl,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRe.MatchString(email) {
		return "", validationErr("email", "invalid email format")
	}
	return email, nil
}

func emailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	return email[at+1:]
}

var supportedLanguages = map[string]bool{"en": true, "de": true, "hi": true}

func normalizeLanguage(lang string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "en", nil
	}
	if !supportedLanguages[lang] {
		return "", validationErr("language", "unsupported language code")
	}
	return lang, nil
}

func (s *Service) auditEvent(ctx context.Context, portal userdomain.Portal, r region.Region, userID, action, metadata string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, string(portal), string(r), userID, action, metadata)
}
