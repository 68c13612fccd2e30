package service

import (
	"context"

	"talentgrid/backend/internal/token"
	tokendomain "talentgrid/backend/internal/token/domain"
	userdomain "talentgrid/backend/internal/user/domain"
)

// ChangePassword verifies the caller's current password, applies the policy,
// and atomically sets the new hash while revoking every other session. The
// calling session survives.
func (s *Service) ChangePassword(ctx context.Context, sessionToken, current, newPassword string) error {
	u, rg, digest, err := s.authenticate(ctx, sessionToken)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(u.PasswordHash, []byte(current)); err != nil {
		return ErrBadCredential
	}
	if err := s.checkPassword(newPassword, current); err != nil {
		return err
	}
	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.store.ChangePassword(ctx, rg, u.ID, hash, digest, s.now()); err != nil {
		return err
	}
	s.auditEvent(ctx, u.Portal, rg, u.ID, "password_changed", "")
	return nil
}

// RequestPasswordReset issues a reset token when the email belongs to an
// active account. The caller always observes the same generic success,
// whether the address is unknown, disabled, or active: account enumeration
// must learn nothing here.
func (s *Service) RequestPasswordReset(ctx context.Context, portal userdomain.Portal, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		// A malformed address cannot belong to an account; report success.
		return nil
	}
	entry, err := s.directory.LookupEmail(ctx, portal, email)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}
	u, err := s.users.GetByID(ctx, entry.Region, entry.UserID)
	if err != nil {
		return err
	}
	if u == nil || u.Status != userdomain.StatusActive {
		return nil
	}

	secret, err := token.NewSecret()
	if err != nil {
		return err
	}
	now := s.now()
	t := &tokendomain.Token{
		Digest:    token.Digest(secret),
		Kind:      tokendomain.KindPasswordReset,
		Region:    u.Region,
		UserID:    u.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl.PasswordReset),
	}
	if err := s.tokens.Create(ctx, u.Region, t); err != nil {
		return err
	}
	s.mailer.PasswordResetLink(ctx, u.Email, u.PreferredLanguage, token.Encode(u.Region, secret))
	s.auditEvent(ctx, portal, u.Region, u.ID, "password_reset_requested", "")
	return nil
}

// CompletePasswordReset consumes the reset token exactly once and, in the
// same regional transaction, sets the new hash and revokes every session.
// A second completion with the same token fails like any invalid token.
func (s *Service) CompletePasswordReset(ctx context.Context, rawToken, newPassword string) error {
	rg, secret, err := token.Decode(rawToken)
	if err != nil {
		return err
	}
	if err := s.checkPassword(newPassword, ""); err != nil {
		return err
	}
	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	userID, ok, err := s.store.CompletePasswordReset(ctx, rg, token.Digest(secret), hash, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenInvalid
	}
	s.auditEvent(ctx, "", rg, userID, "password_reset_completed", "")
	return nil
}
