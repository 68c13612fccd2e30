package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"talentgrid/backend/internal/token/domain"
)

// stubTx records the statement it receives and plays back a canned result.
// The embedded pgx.Tx panics on anything the repository should not call.
type stubTx struct {
	pgx.Tx
	row      stubRow
	tag      pgconn.CommandTag
	lastSQL  string
	lastArgs []any
}

func (f *stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastSQL, f.lastArgs = sql, args
	return f.tag, nil
}

func (f *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	return f.row
}

type stubRow struct {
	userID string
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.userID
	return nil
}

func TestConsumeTx_ReturnsOwner(t *testing.T) {
	tx := &stubTx{row: stubRow{userID: "u1"}}
	repo := NewPostgresRepository(nil)

	userID, ok, err := repo.ConsumeTx(context.Background(), tx, domain.KindPasswordReset, "d1", time.Now())
	if err != nil {
		t.Fatalf("ConsumeTx: %v", err)
	}
	if !ok || userID != "u1" {
		t.Fatalf("ConsumeTx = (%q, %v), want (u1, true)", userID, ok)
	}
	if !strings.Contains(tx.lastSQL, "consumed_at IS NULL") || !strings.Contains(tx.lastSQL, "RETURNING user_id") {
		t.Fatalf("consume statement lost its guard: %s", tx.lastSQL)
	}
	if tx.lastArgs[0] != "d1" || tx.lastArgs[1] != domain.KindPasswordReset {
		t.Fatalf("consume args = %v", tx.lastArgs)
	}
}

func TestConsumeTx_SpentToken(t *testing.T) {
	tx := &stubTx{row: stubRow{err: pgx.ErrNoRows}}
	repo := NewPostgresRepository(nil)

	userID, ok, err := repo.ConsumeTx(context.Background(), tx, domain.KindEmailChange, "d1", time.Now())
	if err != nil {
		t.Fatalf("ConsumeTx: %v", err)
	}
	if ok || userID != "" {
		t.Fatalf("spent token should not consume, got (%q, %v)", userID, ok)
	}
}

func TestRevokeAllForUserTx_SparesCaller(t *testing.T) {
	tx := &stubTx{tag: pgconn.NewCommandTag("UPDATE 2")}
	repo := NewPostgresRepository(nil)

	if err := repo.RevokeAllForUserTx(context.Background(), tx, "u1", "keep", time.Now()); err != nil {
		t.Fatalf("RevokeAllForUserTx: %v", err)
	}
	if !strings.Contains(tx.lastSQL, "digest <> $3") || !strings.Contains(tx.lastSQL, "revoked_at IS NULL") {
		t.Fatalf("revoke statement lost its guard: %s", tx.lastSQL)
	}
	if tx.lastArgs[0] != "u1" || tx.lastArgs[2] != "keep" || tx.lastArgs[3] != domain.KindSession {
		t.Fatalf("revoke args = %v", tx.lastArgs)
	}
}
