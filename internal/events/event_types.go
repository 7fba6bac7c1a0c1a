package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket.created"
	EventTicketUpdated     EventType = "ticket.updated"
	EventTicketSLABreached EventType = "ticket.sla_breached"
)

// AllTypes lists every event type the service emits.
func AllTypes() []EventType {
	return []EventType{EventTicketCreated, EventTicketUpdated, EventTicketSLABreached}
}

// ActorType distinguishes human actors from the service itself.
type ActorType string

const (
	ActorUser   ActorType = "USER"
	ActorSystem ActorType = "SYSTEM"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type   ActorType        `json:"type"`
	UserID *string          `json:"userId,omitempty"`
	Role   *domain.UserRole `json:"role,omitempty"`
}

// UserActor credits an event to a user.
func UserActor(user domain.User) Actor {
	id, role := user.ID, user.Role
	return Actor{Type: ActorUser, UserID: &id, Role: &role}
}

// SystemActor credits an event to the service.
func SystemActor() Actor {
	return Actor{Type: ActorSystem}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticketId"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New builds an event with a fresh id.
func New(eventType EventType, ticketID string, actor Actor, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title        string                `json:"title"`
	AssignedTeam string                `json:"assignedTeam"`
	Priority     domain.TicketPriority `json:"priority"`
	SLADueAt     time.Time             `json:"slaDueAt"`
	Triaged      bool                  `json:"triaged"`
}

// FieldChange is one changed field in a TicketUpdatedPayload.
type FieldChange struct {
	Field    string  `json:"field"`
	OldValue *string `json:"oldValue,omitempty"`
	NewValue *string `json:"newValue,omitempty"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Status    domain.TicketStatus `json:"status"`
	Changes   []FieldChange       `json:"changes"`
	CommentID *string             `json:"commentId,omitempty"`
}

// TicketSLABreachedPayload payload.
type TicketSLABreachedPayload struct {
	ObservedAt time.Time `json:"observedAt"`
}
