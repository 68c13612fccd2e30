package service

import (
	"context"
	"errors"

	directoryrepo "talentgrid/backend/internal/directory/repository"
	"talentgrid/backend/internal/token"
	tokendomain "talentgrid/backend/internal/token/domain"
)

// RequestEmailChange issues an email-change token bound to the candidate
// address. The token is mailed to the new address; completion is what swaps
// the email and revokes sessions.
func (s *Service) RequestEmailChange(ctx context.Context, sessionToken, newEmail string) error {
	u, rg, _, err := s.authenticate(ctx, sessionToken)
	if err != nil {
		return err
	}
	newEmail, err = normalizeEmail(newEmail)
	if err != nil {
		return err
	}
	if newEmail == u.Email {
		return ErrSameEmail
	}
	existing, err := s.directory.LookupEmail(ctx, u.Portal, newEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}

	secret, err := token.NewSecret()
	if err != nil {
		return err
	}
	now := s.now()
	t := &tokendomain.Token{
		Digest:    token.Digest(secret),
		Kind:      tokendomain.KindEmailChange,
		Region:    rg,
		UserID:    u.ID,
		NewEmail:  newEmail,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl.EmailChange),
	}
	if err := s.tokens.Create(ctx, rg, t); err != nil {
		return err
	}
	s.mailer.EmailChangeLink(ctx, newEmail, u.PreferredLanguage, token.Encode(rg, secret))
	s.auditEvent(ctx, u.Portal, rg, u.ID, "email_change_requested", "")
	return nil
}

// CompleteEmailChange consumes the token, swaps the account email, and
// revokes every session. Two users racing for the same target address are
// arbitrated by the directory's unique email claim: exactly one completion
// wins; the loser observes ErrEmailTaken even though both tokens were
// validly issued.
func (s *Service) CompleteEmailChange(ctx context.Context, rawToken string) error {
	rg, secret, err := token.Decode(rawToken)
	if err != nil {
		return err
	}
	digest := token.Digest(secret)
	t, err := s.tokens.GetByDigest(ctx, rg, tokendomain.KindEmailChange, digest)
	if err != nil {
		return err
	}
	now := s.now()
	if t == nil || !t.Live(now) {
		return ErrTokenInvalid
	}
	u, err := s.users.GetByID(ctx, rg, t.UserID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrTokenInvalid
	}
	if u.Region != rg {
		return token.ErrRegionMismatch
	}

	oldEmail, err := s.directory.ClaimEmail(ctx, u.Portal, u.ID, t.NewEmail, now)
	if err != nil {
		if errors.Is(err, directoryrepo.ErrEmailTaken) {
			return ErrEmailTaken
		}
		return err
	}
	userID, ok, err := s.store.CompleteEmailChange(ctx, rg, digest, t.NewEmail, now)
	if err != nil || !ok {
		// The directory claim committed but the regional completion did not;
		// point the directory back at the old address so state stays coherent.
		if _, revErr := s.directory.ClaimEmail(ctx, u.Portal, u.ID, oldEmail, now); revErr != nil {
			s.log.Error("email change: revert directory claim",
				"portal", u.Portal, "region", rg, "user", u.ID, "error", revErr)
		}
		if err != nil {
			return err
		}
		return ErrTokenInvalid
	}
	s.auditEvent(ctx, u.Portal, rg, userID, "email_changed", "")
	return nil
}
