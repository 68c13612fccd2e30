package service

import (
	"context"
	"regexp"
	"time"

	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/tfa"
	"talentgrid/backend/internal/token"
	tokendomain "talentgrid/backend/internal/token/domain"
	userdomain "talentgrid/backend/internal/user/domain"
)

// LoginResult is the outcome of a successful password check: a TFA token.
// No session exists yet; VerifyTFA is the only path that produces one.
type LoginResult struct {
	TFAToken  string
	ExpiresAt time.Time
}

// TFAResult is the outcome of VerifyTFA: an authenticated session.
type TFAResult struct {
	SessionToken      string
	ExpiresAt         time.Time
	PreferredLanguage string
	UserID            string
	Handle            string
}

// Login checks the credential and, on success, issues a region-prefixed TFA
// token whose 6-digit code is emailed out-of-band. Unknown emails and wrong
// passwords fail identically; a disabled account fails only after the
// credential was correct.
func (s *Service) Login(ctx context.Context, portal userdomain.Portal, email, password string) (*LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrBadCredential
	}
	if password == "" {
		return nil, ErrBadCredential
	}
	entry, err := s.directory.LookupEmail(ctx, portal, email)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrBadCredential
	}
	u, err := s.users.GetByID(ctx, entry.Region, entry.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrBadCredential
	}
	if err := s.hasher.Compare(u.PasswordHash, []byte(password)); err != nil {
		s.auditEvent(ctx, portal, u.Region, u.ID, "login_failure", "bad password")
		return nil, ErrBadCredential
	}
	if u.Status != userdomain.StatusActive {
		return nil, ErrAccountDisabled
	}

	code, err := tfa.GenerateCode()
	if err != nil {
		return nil, err
	}
	secret, err := token.NewSecret()
	if err != nil {
		return nil, err
	}
	now := s.now()
	expiresAt := now.Add(s.ttl.TFA)
	t := &tokendomain.Token{
		Digest:     token.Digest(secret),
		Kind:       tokendomain.KindTFA,
		Region:     u.Region,
		UserID:     u.ID,
		CodeDigest: tfa.HashCode(code),
		IssuedAt:   now,
		ExpiresAt:  expiresAt,
	}
	if err := s.tokens.Create(ctx, u.Region, t); err != nil {
		return nil, err
	}
	s.mailer.TFACode(ctx, u.Email, u.PreferredLanguage, code)
	return &LoginResult{TFAToken: token.Encode(u.Region, secret), ExpiresAt: expiresAt}, nil
}

var codeRe = regexp.MustCompile(`^\d{6}$`)

// VerifyTFA checks the emailed code against a live TFA token and produces a
// session. A wrong code does not burn the token: a later correct attempt
// still succeeds until the token's own expiry. A live token may also be
// verified more than once, each success yielding a distinct session (one
// emailed code can log in several devices). rememberMe only lengthens the
// session TTL.
func (s *Service) VerifyTFA(ctx context.Context, rawToken, code string, rememberMe bool) (*TFAResult, error) {
	rg, secret, err := token.Decode(rawToken)
	if err != nil {
		return nil, err
	}
	t, err := s.tokens.GetByDigest(ctx, rg, tokendomain.KindTFA, token.Digest(secret))
	if err != nil {
		return nil, err
	}
	now := s.now()
	if t == nil || !t.Live(now) {
		return nil, ErrTokenInvalid
	}
	if !codeRe.MatchString(code) || !tfa.CodeEqual(code, t.CodeDigest) {
		return nil, ErrWrongCode
	}
	u, err := s.users.GetByID(ctx, rg, t.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Status != userdomain.StatusActive {
		return nil, ErrTokenInvalid
	}
	if u.Region != rg {
		return nil, token.ErrRegionMismatch
	}

	sessionToken, sess, err := s.issueSession(ctx, u, rememberMe, now)
	if err != nil {
		return nil, err
	}
	s.auditEvent(ctx, u.Portal, u.Region, u.ID, "tfa_verified", "")
	return &TFAResult{
		SessionToken:      sessionToken,
		ExpiresAt:         sess.ExpiresAt,
		PreferredLanguage: u.PreferredLanguage,
		UserID:            u.ID,
		Handle:            u.Handle,
	}, nil
}

// Logout revokes the session. Reusing an already revoked or unknown token
// fails with ErrTokenInvalid.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	rg, secret, err := token.Decode(rawToken)
	if err != nil {
		return err
	}
	ok, err := s.tokens.Revoke(ctx, rg, token.Digest(secret), s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenInvalid
	}
	s.auditEvent(ctx, "", rg, "", "logout", "")
	return nil
}

// ValidateSession resolves a bearer session token to its live owner. Other
// handlers use it to guard portal-scoped reads; the caller decides what the
// resolved user's portal is allowed to see.
func (s *Service) ValidateSession(ctx context.Context, rawToken string) (*userdomain.User, error) {
	u, _, _, err := s.authenticate(ctx, rawToken)
	return u, err
}

// authenticate resolves a session token to its live session and owning user.
// The token's region prefix picks the store; a user row that disagrees with
// that region is a mismatch, reported indistinguishably from an invalid
// token at the boundary.
func (s *Service) authenticate(ctx context.Context, rawToken string) (*userdomain.User, region.Region, string, error) {
	rg, secret, err := token.Decode(rawToken)
	if err != nil {
		return nil, "", "", err
	}
	digest := token.Digest(secret)
	t, err := s.tokens.GetByDigest(ctx, rg, tokendomain.KindSession, digest)
	if err != nil {
		return nil, "", "", err
	}
	if t == nil || !t.Live(s.now()) {
		return nil, "", "", ErrTokenInvalid
	}
	u, err := s.users.GetByID(ctx, rg, t.UserID)
	if err != nil {
		return nil, "", "", err
	}
	if u == nil {
		return nil, "", "", ErrTokenInvalid
	}
	if u.Region != rg {
		return nil, "", "", token.ErrRegionMismatch
	}
	return u, rg, digest, nil
}
