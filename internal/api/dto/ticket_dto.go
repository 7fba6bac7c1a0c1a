package dto

import (
	"time"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Email             string                    `json:"email"`
	Name              *string                   `json:"name"`
	Department        *string                   `json:"department"`
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	AffectedSystem    *string                   `json:"affectedSystem"`
	IsBlocking        bool                      `json:"isBlocking"`
	RequestedTimeline *domain.RequestedTimeline `json:"requestedTimeline"`
	TryKBFirst        *bool                     `json:"tryKbFirst"`
}

// UpdateTicketRequest payload. Absent fields are left alone.
type UpdateTicketRequest struct {
	Status       *domain.TicketStatus   `json:"status"`
	AssignedTeam *string                `json:"assignedTeam"`
	Priority     *domain.TicketPriority `json:"priority"`
	Comment      *string                `json:"comment"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID                   string                       `json:"id"`
	Title                string                       `json:"title"`
	Description          string                       `json:"description"`
	AffectedSystem       *string                      `json:"affectedSystem"`
	IsBlocking           bool                         `json:"isBlocking"`
	RequestedTimeline    *domain.RequestedTimeline    `json:"requestedTimeline"`
	TryKBFirst           bool                         `json:"tryKbFirst"`
	RequesterUserID      string                       `json:"requesterUserId"`
	AssignedTeam         string                       `json:"assignedTeam"`
	Priority             domain.TicketPriority        `json:"priority"`
	Summary              domain.TicketSummary         `json:"summary"`
	KnowledgeSuggestions []domain.KnowledgeSuggestion `json:"knowledgeSuggestions"`
	Status               domain.TicketStatus          `json:"status"`
	SLADueAt             time.Time                    `json:"slaDueAt"`
	SLAStatus            domain.SLAStatus             `json:"slaStatus"`
	CreatedAt            time.Time                    `json:"createdAt"`
	UpdatedAt            time.Time                    `json:"updatedAt"`
}

// AuditLogResponse is one audit row.
type AuditLogResponse struct {
	ID          string             `json:"id"`
	TicketID    string             `json:"ticketId"`
	ActorUserID string             `json:"actorUserId"`
	Action      domain.AuditAction `json:"action"`
	FieldName   *string            `json:"fieldName"`
	OldValue    *string            `json:"oldValue"`
	NewValue    *string            `json:"newValue"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// UpdateTicketResponse carries the ticket and the audit rows the update wrote.
type UpdateTicketResponse struct {
	Ticket       TicketResponse     `json:"ticket"`
	AuditEntries []AuditLogResponse `json:"auditEntries"`
}

// TimelineEventResponse is one merged history entry.
type TimelineEventResponse struct {
	Kind      domain.TimelineEventKind `json:"kind"`
	ID        string                   `json:"id"`
	TicketID  string                   `json:"ticketId"`
	Actor     *UserResponse            `json:"actor"`
	ActorID   string                   `json:"actorId"`
	Message   string                   `json:"message"`
	Action    *domain.AuditAction      `json:"action,omitempty"`
	FieldName *string                  `json:"fieldName,omitempty"`
	OldValue  *string                  `json:"oldValue,omitempty"`
	NewValue  *string                  `json:"newValue,omitempty"`
	Body      *string                  `json:"body,omitempty"`
	CreatedAt time.Time                `json:"createdAt"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	suggestions := t.KnowledgeSuggestions
	if suggestions == nil {
		suggestions = []domain.KnowledgeSuggestion{}
	}
	return TicketResponse{
		ID:                   t.ID,
		Title:                t.Title,
		Description:          t.Description,
		AffectedSystem:       t.AffectedSystem,
		IsBlocking:           t.IsBlocking,
		RequestedTimeline:    t.RequestedTimeline,
		TryKBFirst:           t.TryKBFirst,
		RequesterUserID:      t.RequesterUserID,
		AssignedTeam:         t.AssignedTeam,
		Priority:             t.Priority,
		Summary:              t.Summary,
		KnowledgeSuggestions: suggestions,
		Status:               t.Status,
		SLADueAt:             t.SLADueAt,
		SLAStatus:            t.SLAStatus,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

// NewAuditLogResponses maps audit rows.
func NewAuditLogResponses(entries []domain.AuditLog) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditLogResponse{
			ID:          e.ID,
			TicketID:    e.TicketID,
			ActorUserID: e.ActorUserID,
			Action:      e.Action,
			FieldName:   e.FieldName,
			OldValue:    e.OldValue,
			NewValue:    e.NewValue,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

// NewTimelineResponse maps timeline events.
func NewTimelineResponse(events []domain.TimelineEvent) []TimelineEventResponse {
	out := make([]TimelineEventResponse, 0, len(events))
	for _, e := range events {
		item := TimelineEventResponse{
			Kind:      e.Kind,
			ID:        e.ID,
			TicketID:  e.TicketID,
			ActorID:   e.ActorID,
			Message:   e.Message,
			Action:    e.Action,
			FieldName: e.FieldName,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			Body:      e.Body,
			CreatedAt: e.CreatedAt,
		}
		if e.Actor != nil {
			actor := NewUserResponse(e.Actor)
			item.Actor = &actor
		}
		out = append(out, item)
	}
	return out
}
