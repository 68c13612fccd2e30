package service

import (
	"context"
	"strings"
	"sync"
	"time"

	directorydomain "talentgrid/backend/internal/directory/domain"
	directoryrepo "talentgrid/backend/internal/directory/repository"
	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/security"
	tokendomain "talentgrid/backend/internal/token/domain"
	userdomain "talentgrid/backend/internal/user/domain"
)

type memDirectory struct {
	mu      sync.Mutex
	domains map[string]*directorydomain.ApprovedDomain
	entries map[string]*directorydomain.Entry
	signup  map[string]*directorydomain.SignupToken
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		domains: map[string]*directorydomain.ApprovedDomain{},
		entries: map[string]*directorydomain.Entry{},
		signup:  map[string]*directorydomain.SignupToken{},
	}
}

func dirKey(portal userdomain.Portal, s string) string { return string(portal) + "|" + s }

func (d *memDirectory) ApprovedDomain(ctx context.Context, portal userdomain.Portal, name string) (*directorydomain.ApprovedDomain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.domains[dirKey(portal, name)], nil
}

func (d *memDirectory) LookupEmail(ctx context.Context, portal userdomain.Portal, email string) (*directorydomain.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries[dirKey(portal, email)], nil
}

func (d *memDirectory) CreateSignupToken(ctx context.Context, t *directorydomain.SignupToken) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t2 := *t
	d.signup[t.Digest] = &t2
	return nil
}

func (d *memDirectory) GetSignupToken(ctx context.Context, digest string) (*directorydomain.SignupToken, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.signup[digest]; ok {
		t2 := *t
		return &t2, nil
	}
	return nil, nil
}

func (d *memDirectory) CompleteSignup(ctx context.Context, digest string, e *directorydomain.Entry, now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.signup[digest]
	if !ok || t.ConsumedAt != nil || t.Expired(now) {
		return directoryrepo.ErrTokenSpent
	}
	if _, taken := d.entries[dirKey(e.Portal, e.Email)]; taken {
		return directoryrepo.ErrEmailTaken
	}
	consumed := now
	t.ConsumedAt = &consumed
	e2 := *e
	d.entries[dirKey(e.Portal, e.Email)] = &e2
	return nil
}

func (d *memDirectory) ClaimEmail(ctx context.Context, portal userdomain.Portal, userID, newEmail string, at time.Time) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if other, taken := d.entries[dirKey(portal, newEmail)]; taken && other.UserID != userID {
		return "", directoryrepo.ErrEmailTaken
	}
	for k, e := range d.entries {
		if e.Portal == portal && e.UserID == userID {
			old := e.Email
			delete(d.entries, k)
			e.Email = newEmail
			d.entries[dirKey(portal, newEmail)] = e
			return old, nil
		}
	}
	return "", directoryrepo.ErrTokenSpent
}

func (d *memDirectory) ReleaseEmail(ctx context.Context, portal userdomain.Portal, email string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, dirKey(portal, email))
	return nil
}

type memUsers struct {
	mu sync.Mutex
	m  map[string]*userdomain.User // region|id
}

func newMemUsers() *memUsers { return &memUsers{m: map[string]*userdomain.User{}} }

func userKey(r region.Region, id string) string { return string(r) + "|" + id }

func (u *memUsers) GetByID(ctx context.Context, r region.Region, id string) (*userdomain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if x, ok := u.m[userKey(r, id)]; ok {
		x2 := *x
		return &x2, nil
	}
	return nil, nil
}

func (u *memUsers) Create(ctx context.Context, r region.Region, x *userdomain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	x2 := *x
	u.m[userKey(r, x.ID)] = &x2
	return nil
}

func (u *memUsers) HandleExists(ctx context.Context, r region.Region, portal userdomain.Portal, handle string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, x := range u.m {
		if x.Region == r && x.Portal == portal && x.Handle == handle {
			return true, nil
		}
	}
	return false, nil
}

type memTokens struct {
	mu sync.Mutex
	m  map[string]*tokendomain.Token // region|digest
}

func newMemTokens() *memTokens { return &memTokens{m: map[string]*tokendomain.Token{}} }

func tokKey(r region.Region, digest string) string { return string(r) + "|" + digest }

func (s *memTokens) Create(ctx context.Context, r region.Region, t *tokendomain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t2 := *t
	s.m[tokKey(r, t.Digest)] = &t2
	return nil
}

func (s *memTokens) GetByDigest(ctx context.Context, r region.Region, kind tokendomain.Kind, digest string) (*tokendomain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.m[tokKey(r, digest)]
	if !ok || t.Kind != kind {
		return nil, nil
	}
	t2 := *t
	return &t2, nil
}

func (s *memTokens) Revoke(ctx context.Context, r region.Region, digest string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.m[tokKey(r, digest)]
	if !ok || t.Kind != tokendomain.KindSession || t.RevokedAt != nil {
		return false, nil
	}
	at := now
	t.RevokedAt = &at
	return true, nil
}

// memTxStore applies the composite completions against the same in-memory
// state, under one lock so they are atomic like the real transactions.
type memTxStore struct {
	tokens *memTokens
	users  *memUsers
}

func (s *memTxStore) consume(r region.Region, kind tokendomain.Kind, digest string, now time.Time) (string, bool) {
	t, ok := s.tokens.m[tokKey(r, digest)]
	if !ok || t.Kind != kind || t.ConsumedAt != nil || t.Expired(now) {
		return "", false
	}
	at := now
	t.ConsumedAt = &at
	return t.UserID, true
}

func (s *memTxStore) revokeSessions(r region.Region, userID, exceptDigest string, now time.Time) {
	for _, t := range s.tokens.m {
		if t.Region == r && t.UserID == userID && t.Kind == tokendomain.KindSession &&
			t.RevokedAt == nil && t.Digest != exceptDigest {
			at := now
			t.RevokedAt = &at
		}
	}
}

func (s *memTxStore) CompletePasswordReset(ctx context.Context, r region.Region, digest, newHash string, now time.Time) (string, bool, error) {
	s.tokens.mu.Lock()
	defer s.tokens.mu.Unlock()
	userID, ok := s.consume(r, tokendomain.KindPasswordReset, digest, now)
	if !ok {
		return "", false, nil
	}
	s.users.mu.Lock()
	if u, found := s.users.m[userKey(r, userID)]; found {
		u.PasswordHash = newHash
	}
	s.users.mu.Unlock()
	s.revokeSessions(r, userID, "", now)
	return userID, true, nil
}

func (s *memTxStore) ChangePassword(ctx context.Context, r region.Region, userID, newHash, keepDigest string, now time.Time) error {
	s.tokens.mu.Lock()
	defer s.tokens.mu.Unlock()
	s.users.mu.Lock()
	if u, found := s.users.m[userKey(r, userID)]; found {
		u.PasswordHash = newHash
	}
	s.users.mu.Unlock()
	s.revokeSessions(r, userID, keepDigest, now)
	return nil
}

func (s *memTxStore) CompleteEmailChange(ctx context.Context, r region.Region, digest, newEmail string, now time.Time) (string, bool, error) {
	s.tokens.mu.Lock()
	defer s.tokens.mu.Unlock()
	userID, ok := s.consume(r, tokendomain.KindEmailChange, digest, now)
	if !ok {
		return "", false, nil
	}
	s.users.mu.Lock()
	if u, found := s.users.m[userKey(r, userID)]; found {
		u.Email = newEmail
	}
	s.users.mu.Unlock()
	s.revokeSessions(r, userID, "", now)
	return userID, true, nil
}

// capMailer records outbound mail so tests can assert on delivery.
type capMailer struct {
	mu      sync.Mutex
	codes   []string // TFA codes
	resets  []string // reset tokens
	changes []string // email-change tokens
	sent    int
}

func (m *capMailer) SignupLink(ctx context.Context, email, language, token string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
}

func (m *capMailer) TFACode(ctx context.Context, email, language, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	m.sent++
}

func (m *capMailer) PasswordResetLink(ctx context.Context, email, language, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, token)
	m.sent++
}

func (m *capMailer) EmailChangeLink(ctx context.Context, email, language, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, token)
	m.sent++
}

func (m *capMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.codes) == 0 {
		return ""
	}
	return m.codes[len(m.codes)-1]
}

func (m *capMailer) lastChangeLink() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.changes) == 0 {
		return ""
	}
	return m.changes[len(m.changes)-1]
}

type fixture struct {
	svc    *Service
	dir    *memDirectory
	users  *memUsers
	tokens *memTokens
	mailer *capMailer
}

func newFixture() *fixture {
	dir := newMemDirectory()
	users := newMemUsers()
	tokens := newMemTokens()
	mailer := &capMailer{}
	dir.domains[dirKey(userdomain.PortalHub, "approved.com")] = &directorydomain.ApprovedDomain{
		Domain: "approved.com", Portal: userdomain.PortalHub, Region: region.IND1,
	}
	dir.domains[dirKey(userdomain.PortalOrg, "employer.com")] = &directorydomain.ApprovedDomain{
		Domain: "employer.com", Portal: userdomain.PortalOrg, Region: region.USA1,
	}
	svc := New(dir, users, tokens, &memTxStore{tokens: tokens, users: users},
		security.NewHasher(4), mailer, nil,
		TTLConfig{
			Signup:          30 * time.Second,
			TFA:             15 * time.Second,
			Session:         time.Hour,
			RememberSession: 30 * 24 * time.Hour,
			PasswordReset:   time.Hour,
			EmailChange:     time.Hour,
		}, nil)
	return &fixture{svc: svc, dir: dir, users: users, tokens: tokens, mailer: mailer}
}

// signupUser drives the full signup pipeline and returns the result.
func (f *fixture) signupUser(ctx context.Context, email, password string) (*SignupResult, error) {
	issue, err := f.svc.RequestSignup(ctx, userdomain.PortalHub, email, "en")
	if err != nil {
		return nil, err
	}
	return f.svc.CompleteSignup(ctx, userdomain.PortalHub, issue.Token, password, Profile{Name: "Test User"})
}

// loginSession drives login + TFA and returns a session token.
func (f *fixture) loginSession(ctx context.Context, email, password string, remember bool) (*TFAResult, error) {
	lr, err := f.svc.Login(ctx, userdomain.PortalHub, email, password)
	if err != nil {
		return nil, err
	}
	return f.svc.VerifyTFA(ctx, lr.TFAToken, f.mailer.lastCode(), remember)
}

func isHex64(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

func isPrefixedToken(s string) bool {
	i := strings.IndexByte(s, '-')
	if i != 4 {
		return false
	}
	if _, err := region.Parse(s[:4]); err != nil {
		return false
	}
	return isHex64(s[5:])
}
