package domain

import "time"

// AuditLog represents an audit event.
type AuditLog struct {
	ID        string
	Portal    string
	Region    string
	UserID    string
	Action    string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
