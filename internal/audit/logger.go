package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"talentgrid/backend/internal/audit/domain"
	auditrepo "talentgrid/backend/internal/audit/repository"
)

// SentinelPortal is the portal recorded for events that have no portal
// (e.g. logout with an invalid token).
const SentinelPortal = "_system"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event. LogEvent is best-effort:
// failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, portal, region, userID, action, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	log         *slog.Logger
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor
// for the client IP. ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, log *slog.Logger, ipExtractor IPExtractor) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{repo: repo, log: log, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, portal, region, userID, action, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if portal == "" {
		portal = SentinelPortal
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		Portal:    portal,
		Region:    region,
		UserID:    userID,
		Action:    action,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.ErrorContext(ctx, "audit: failed to log event", "action", action, "error", err)
	}
}
