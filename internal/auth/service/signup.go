package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	directorydomain "talentgrid/backend/internal/directory/domain"
	directoryrepo "talentgrid/backend/internal/directory/repository"
	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/security"
	"talentgrid/backend/internal/token"
	tokendomain "talentgrid/backend/internal/token/domain"
	userdomain "talentgrid/backend/internal/user/domain"
)

// SignupIssue is the outcome of RequestSignup.
type SignupIssue struct {
	Token     string
	ExpiresAt time.Time
}

// Profile carries the caller-supplied fields of signup completion.
type Profile struct {
	Name     string
	Language string
}

// SignupResult is the outcome of CompleteSignup: the account is active and
// holds a fresh session.
type SignupResult struct {
	UserID       string
	Handle       string
	SessionToken string
	Region       region.Region
}

// RequestSignup issues a single-use signup token for the email if its domain
// is approved on the portal and the address is still free. The token is bare
// (no region prefix); the approved domain's row decides the home region the
// completed account will get.
func (s *Service) RequestSignup(ctx context.Context, portal userdomain.Portal, email, language string) (*SignupIssue, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	language, err = normalizeLanguage(language)
	if err != nil {
		return nil, err
	}
	dom := emailDomain(email)
	approved, err := s.directory.ApprovedDomain(ctx, portal, dom)
	if err != nil {
		return nil, err
	}
	if approved == nil {
		return nil, ErrDomainNotApproved
	}
	existing, err := s.directory.LookupEmail(ctx, portal, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	secret, err := token.NewSecret()
	if err != nil {
		return nil, err
	}
	now := s.now()
	expiresAt := now.Add(s.ttl.Signup)
	st := &directorydomain.SignupToken{
		Digest:    token.Digest(secret),
		Portal:    portal,
		Email:     email,
		Domain:    dom,
		Region:    approved.Region,
		Language:  language,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}
	if err := s.directory.CreateSignupToken(ctx, st); err != nil {
		return nil, err
	}
	s.mailer.SignupLink(ctx, email, language, secret, expiresAt)
	s.auditEvent(ctx, portal, approved.Region, "", "signup_requested", dom)
	return &SignupIssue{Token: secret, ExpiresAt: expiresAt}, nil
}

// CompleteSignup consumes the signup token exactly once, creates the account
// in the home region the token is bound to, and logs the new user in. Under
// a duplicate-completion race the directory claim leaves one winner; the
// loser fails with ErrUserExists.
func (s *Service) CompleteSignup(ctx context.Context, portal userdomain.Portal, rawToken, password string, profile Profile) (*SignupResult, error) {
	secret, err := token.DecodeBare(rawToken)
	if err != nil {
		return nil, err
	}
	digest := token.Digest(secret)
	st, err := s.directory.GetSignupToken(ctx, digest)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if st == nil || st.Portal != portal || st.ConsumedAt != nil || st.Expired(now) {
		return nil, ErrTokenInvalid
	}
	if vs := s.checkPassword(password, ""); vs != nil {
		return nil, vs
	}
	language := st.Language
	if profile.Language != "" {
		language, err = normalizeLanguage(profile.Language)
		if err != nil {
			return nil, err
		}
	}
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		return nil, validationErr("name", "name is required")
	}

	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	handle, err := s.newHandle(ctx, st.Region, portal, name)
	if err != nil {
		return nil, err
	}
	userID := uuid.New().String()
	u := &userdomain.User{
		ID:                userID,
		Portal:            portal,
		Email:             st.Email,
		Handle:            handle,
		Name:              name,
		PasswordHash:      hash,
		Status:            userdomain.StatusActive,
		PreferredLanguage: language,
		Region:            st.Region,
		Roles:             userdomain.DefaultRoles[portal],
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	entry := &directorydomain.Entry{
		Portal:    portal,
		Email:     st.Email,
		Region:    st.Region,
		UserID:    userID,
		CreatedAt: now,
	}
	switch err := s.directory.CompleteSignup(ctx, digest, entry, now); {
	case err == nil:
	case errors.Is(err, directoryrepo.ErrTokenSpent):
		return nil, ErrTokenInvalid
	case errors.Is(err, directoryrepo.ErrEmailTaken):
		return nil, ErrUserExists
	default:
		return nil, err
	}
	if err := s.users.Create(ctx, st.Region, u); err != nil {
		// The directory claim committed but the regional insert failed; release
		// the claim so the signup can be retried.
		if relErr := s.directory.ReleaseEmail(ctx, portal, st.Email); relErr != nil {
			s.log.Error("signup: release email after failed user insert",
				"portal", portal, "region", st.Region, "error", relErr)
		}
		return nil, err
	}

	sessionToken, _, err := s.issueSession(ctx, u, false, now)
	if err != nil {
		return nil, err
	}
	s.auditEvent(ctx, portal, st.Region, userID, "signup_completed", st.Domain)
	return &SignupResult{
		UserID:       userID,
		Handle:       handle,
		SessionToken: sessionToken,
		Region:       st.Region,
	}, nil
}

func (s *Service) checkPassword(newPassword, currentPassword string) error {
	if vs := security.CheckPasswordPolicy(newPassword, currentPassword); len(vs) > 0 {
		return &ValidationError{Fields: vs}
	}
	return nil
}

// issueSession creates a session token for the user. remember selects the
// long TTL; nothing else about the session differs.
func (s *Service) issueSession(ctx context.Context, u *userdomain.User, remember bool, now time.Time) (string, *tokendomain.Token, error) {
	secret, err := token.NewSecret()
	if err != nil {
		return "", nil, err
	}
	ttl := s.ttl.Session
	if remember {
		ttl = s.ttl.RememberSession
	}
	t := &tokendomain.Token{
		Digest:    token.Digest(secret),
		Kind:      tokendomain.KindSession,
		Region:    u.Region,
		UserID:    u.ID,
		Roles:     u.Roles,
		Remember:  remember,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.tokens.Create(ctx, u.Region, t); err != nil {
		return "", nil, err
	}
	return token.Encode(u.Region, secret), t, nil
}

const handleSuffixBytes = 3

// newHandle derives a URL-safe handle ([a-z0-9-]+) from the profile name and
// retries with a fresh random suffix on collision.
func (s *Service) newHandle(ctx context.Context, r region.Region, portal userdomain.Portal, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = string(portal)
	}
	for attempt := 0; attempt < 5; attempt++ {
		b := make([]byte, handleSuffixBytes)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		handle := base + "-" + hex.EncodeToString(b)
		taken, err := s.users.HandleExists(ctx, r, portal, handle)
		if err != nil {
			return "", err
		}
		if !taken {
			return handle, nil
		}
	}
	return "", fmt.Errorf("could not allocate a free handle for %q", base)
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
