package domain

import "time"

// AuditAction captures what changed in an audit entry.
type AuditAction string

const (
	AuditTicketCreated   AuditAction = "TICKET_CREATED"
	AuditStatusChanged   AuditAction = "STATUS_CHANGED"
	AuditTeamChanged     AuditAction = "TEAM_CHANGED"
	AuditPriorityChanged AuditAction = "PRIORITY_CHANGED"
	AuditSLAUpdated      AuditAction = "SLA_UPDATED"
	AuditCommentAdded    AuditAction = "COMMENT_ADDED"
)

// Audited field names.
const (
	FieldStatus       = "status"
	FieldAssignedTeam = "assignedTeam"
	FieldPriority     = "priority"
	FieldSLADueAt     = "slaDueAt"
	FieldComment      = "comment"
)

// AuditLog is an immutable audit trail entry.
type AuditLog struct {
	ID          string
	TicketID    string
	ActorUserID string
	Action      AuditAction
	FieldName   *string
	OldValue    *string
	NewValue    *string
	CreatedAt   time.Time
}
