// Package repository implements the transactional completions of the auth
// state machine: each one touches the tokens and users tables of a single
// regional database and must apply all of its side effects or none.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"talentgrid/backend/internal/region"
	tokendomain "talentgrid/backend/internal/token/domain"
	tokenrepo "talentgrid/backend/internal/token/repository"
	userrepo "talentgrid/backend/internal/user/repository"
)

type PostgresStore struct {
	router *region.Router
	tokens *tokenrepo.PostgresRepository
	users  *userrepo.PostgresRepository
}

// NewPostgresStore returns a store that resolves each call's region through
// the router and runs the token and user repositories' Tx statements inside
// one transaction per completion.
func NewPostgresStore(router *region.Router, tokens *tokenrepo.PostgresRepository, users *userrepo.PostgresRepository) *PostgresStore {
	return &PostgresStore{router: router, tokens: tokens, users: users}
}

func (s *PostgresStore) inTx(ctx context.Context, rg region.Region, fn func(tx pgx.Tx) error) error {
	pool, err := s.router.Pool(rg)
	if err != nil {
		return err
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// errNotConsumed aborts a transaction whose guarded token consume affected no
// row; callers translate it into ok=false.
var errNotConsumed = errors.New("token not consumable")

// CompletePasswordReset consumes the reset token, sets the new password hash,
// and revokes every session for the owning user, all in one transaction. The
// guarded consume makes concurrent completions of the same token see exactly
// one success.
func (s *PostgresStore) CompletePasswordReset(ctx context.Context, rg region.Region, digest, newHash string, now time.Time) (string, bool, error) {
	var userID string
	err := s.inTx(ctx, rg, func(tx pgx.Tx) error {
		id, ok, err := s.tokens.ConsumeTx(ctx, tx, tokendomain.KindPasswordReset, digest, now)
		if err != nil {
			return err
		}
		if !ok {
			return errNotConsumed
		}
		userID = id
		if err := s.users.SetPasswordHashTx(ctx, tx, userID, newHash, now); err != nil {
			return err
		}
		return s.tokens.RevokeAllForUserTx(ctx, tx, userID, "", now)
	})
	if errors.Is(err, errNotConsumed) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

// ChangePassword sets the new hash and revokes every session except the
// caller's, in one transaction.
func (s *PostgresStore) ChangePassword(ctx context.Context, rg region.Region, userID, newHash, keepDigest string, now time.Time) error {
	return s.inTx(ctx, rg, func(tx pgx.Tx) error {
		if err := s.users.SetPasswordHashTx(ctx, tx, userID, newHash, now); err != nil {
			return err
		}
		return s.tokens.RevokeAllForUserTx(ctx, tx, userID, keepDigest, now)
	})
}

// CompleteEmailChange consumes the email-change token, swaps the user's
// email, and revokes every session, in one transaction. The directory claim
// happens before this call; ok=false tells the caller to revert it.
func (s *PostgresStore) CompleteEmailChange(ctx context.Context, rg region.Region, digest, newEmail string, now time.Time) (string, bool, error) {
	var userID string
	err := s.inTx(ctx, rg, func(tx pgx.Tx) error {
		id, ok, err := s.tokens.ConsumeTx(ctx, tx, tokendomain.KindEmailChange, digest, now)
		if err != nil {
			return err
		}
		if !ok {
			return errNotConsumed
		}
		userID = id
		if err := s.users.SetEmailTx(ctx, tx, userID, newEmail, now); err != nil {
			return err
		}
		return s.tokens.RevokeAllForUserTx(ctx, tx, userID, "", now)
	})
	if errors.Is(err, errNotConsumed) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}
