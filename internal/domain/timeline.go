package domain

import "time"

// TimelineEventKind tells audit rows and comments apart in a timeline.
type TimelineEventKind string

const (
	TimelineEventAudit   TimelineEventKind = "AUDIT"
	TimelineEventComment TimelineEventKind = "COMMENT"
)

// TimelineEvent is one entry of a ticket's merged history.
type TimelineEvent struct {
	Kind      TimelineEventKind
	ID        string
	TicketID  string
	Actor     *User
	ActorID   string
	Message   string
	Action    *AuditAction
	FieldName *string
	OldValue  *string
	NewValue  *string
	Body      *string
	CreatedAt time.Time
}
