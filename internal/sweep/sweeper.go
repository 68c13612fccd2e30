// Package sweep removes expired token rows. Validation already treats
// past-expiry rows as dead, so the sweep only reclaims space; its timing
// never affects correctness.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"talentgrid/backend/internal/region"
)

// TokenStore deletes expired rows from one regional database.
type TokenStore interface {
	DeleteExpired(ctx context.Context, r region.Region, before time.Time) (int64, error)
}

// DirectoryStore deletes expired signup tokens from the directory database.
type DirectoryStore interface {
	DeleteExpiredSignupTokens(ctx context.Context, before time.Time) (int64, error)
}

type Sweeper struct {
	tokens    TokenStore
	directory DirectoryStore
	interval  time.Duration
	log       *slog.Logger

	now func() time.Time
}

func New(tokens TokenStore, directory DirectoryStore, interval time.Duration, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		tokens:    tokens,
		directory: directory,
		interval:  interval,
		log:       log,
		now:       time.Now,
	}
}

// Run sweeps once immediately, then at every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.SweepOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes expired rows from every regional database and the
// directory. A failing region is logged and does not stop the others.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := s.now().UTC()
	var total int64
	for _, rg := range region.All {
		n, err := s.tokens.DeleteExpired(ctx, rg, cutoff)
		if err != nil {
			s.log.ErrorContext(ctx, "sweep tokens", "region", rg, "error", err)
			continue
		}
		total += n
	}
	n, err := s.directory.DeleteExpiredSignupTokens(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "sweep signup tokens", "error", err)
	} else {
		total += n
	}
	if total > 0 {
		s.log.InfoContext(ctx, "swept expired tokens", "deleted", total)
	}
}
