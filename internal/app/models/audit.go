package models

import "time"

// Audit is an advisory audit trail entry. Writes are best effort and never
// fail the primary request.
type Audit struct {
	ID         int64
	ActorID    int64
	Action     string
	EntityType string
	EntityID   *int64
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Audit action tags.
const (
	AuditImpersonateStart = "impersonate.start"
	AuditImpersonateStop  = "impersonate.stop"
	AuditSessionCreate    = "session.create"
	AuditSessionUpdate    = "session.update"
	AuditSessionDelete    = "session.delete"
	AuditUserUpdate       = "user.admin_update"
)
