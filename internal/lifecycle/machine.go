package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-desk/internal/audit"
	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// DueFunc computes an SLA due instant.
type DueFunc func(start time.Time, priority domain.TicketPriority) time.Time

// Update is a requested change. Nil fields are left alone.
type Update struct {
	Status       *domain.TicketStatus
	AssignedTeam *string
	Priority     *domain.TicketPriority
	Comment      *string
}

// Result is the outcome of applying an Update. Nothing has been persisted yet.
type Result struct {
	Ticket       domain.Ticket
	Comment      *domain.Comment
	AuditEntries []domain.AuditLog
}

// Changed reports whether the update had any effect.
func (r Result) Changed() bool {
	return len(r.AuditEntries) > 0
}

// Machine validates and applies ticket mutations.
type Machine struct {
	transitions Transitions
	dueAt       DueFunc
}

// NewMachine builds a machine over the given transition table and SLA calculator.
func NewMachine(transitions Transitions, dueAt DueFunc) *Machine {
	return &Machine{transitions: transitions, dueAt: dueAt}
}

// Transitions exposes the table the machine enforces.
func (m *Machine) Transitions() Transitions {
	return m.transitions
}

// Open initializes a new ticket: status NEW, SLA due from now on its priority,
// and the TICKET_CREATED entry credited to the requester.
func (m *Machine) Open(ticket domain.Ticket, now time.Time) (domain.Ticket, domain.AuditLog) {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if !ticket.Priority.Valid() {
		ticket.Priority = domain.TicketPriorityMedium
	}
	ticket.Status = domain.TicketStatusNew
	ticket.SLADueAt = m.dueAt(now, ticket.Priority)
	ticket.SLAStatus = domain.SLAStatusOnTrack
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	entry := audit.Entry(ticket.ID, ticket.RequesterUserID, domain.AuditTicketCreated, nil, nil, nil, now)
	return ticket, entry
}

// Apply validates every requested field against ticket and actor before
// changing anything. On error the ticket is returned untouched.
func (m *Machine) Apply(ticket domain.Ticket, actor domain.User, update Update, now time.Time) (Result, error) {
	statusChange, err := m.checkStatus(ticket, actor, update.Status)
	if err != nil {
		return Result{Ticket: ticket}, err
	}
	teamChange, err := checkTeam(ticket, actor, update.AssignedTeam)
	if err != nil {
		return Result{Ticket: ticket}, err
	}
	priorityChange, err := checkPriority(ticket, actor, update.Priority)
	if err != nil {
		return Result{Ticket: ticket}, err
	}
	body, err := checkComment(actor, update.Comment)
	if err != nil {
		return Result{Ticket: ticket}, err
	}

	next := ticket
	entries := []domain.AuditLog{}

	if statusChange != nil {
		entries = append(entries, audit.FieldChange(ticket.ID, actor.ID, domain.AuditStatusChanged,
			domain.FieldStatus, string(ticket.Status), string(*statusChange), now))
		next.Status = *statusChange
	}
	if teamChange != nil {
		entries = append(entries, audit.FieldChange(ticket.ID, actor.ID, domain.AuditTeamChanged,
			domain.FieldAssignedTeam, ticket.AssignedTeam, *teamChange, now))
		next.AssignedTeam = *teamChange
	}
	if priorityChange != nil {
		due := m.dueAt(now, *priorityChange)
		entries = append(entries,
			audit.FieldChange(ticket.ID, actor.ID, domain.AuditPriorityChanged,
				domain.FieldPriority, string(ticket.Priority), string(*priorityChange), now),
			audit.FieldChange(ticket.ID, actor.ID, domain.AuditSLAUpdated,
				domain.FieldSLADueAt, formatInstant(ticket.SLADueAt), formatInstant(due), now),
		)
		next.Priority = *priorityChange
		next.SLADueAt = due
		next.SLAStatus = domain.SLAStatusOnTrack
	}

	var comment *domain.Comment
	if body != "" {
		comment = &domain.Comment{
			ID:           uuid.NewString(),
			TicketID:     ticket.ID,
			AuthorUserID: actor.ID,
			Body:         body,
			CreatedAt:    now,
		}
		entries = append(entries, audit.Entry(ticket.ID, actor.ID, domain.AuditCommentAdded, nil, nil, nil, now))
	}

	if len(entries) == 0 {
		return Result{Ticket: ticket, AuditEntries: entries}, nil
	}
	next.UpdatedAt = now
	return Result{Ticket: next, Comment: comment, AuditEntries: entries}, nil
}

func (m *Machine) checkStatus(ticket domain.Ticket, actor domain.User, requested *domain.TicketStatus) (*domain.TicketStatus, error) {
	if requested == nil || *requested == ticket.Status {
		return nil, nil
	}
	if !requested.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(*requested)})
	}
	if !CanMutate(actor.Role, FieldStatus) {
		return nil, apperrors.NewForbidden("role may not change status")
	}
	if !m.transitions.Allows(ticket.Status, *requested) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(*requested))
	}
	return requested, nil
}

func checkTeam(ticket domain.Ticket, actor domain.User, requested *string) (*string, error) {
	if requested == nil || *requested == ticket.AssignedTeam {
		return nil, nil
	}
	if !CanMutate(actor.Role, FieldAssignedTeam) {
		return nil, apperrors.NewForbidden("requesters may not change the assigned team")
	}
	return requested, nil
}

func checkPriority(ticket domain.Ticket, actor domain.User, requested *domain.TicketPriority) (*domain.TicketPriority, error) {
	if requested == nil || *requested == ticket.Priority {
		return nil, nil
	}
	if !CanMutate(actor.Role, FieldPriority) {
		return nil, apperrors.NewForbidden("requesters may not change priority")
	}
	if !requested.Valid() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("invalid priority %q", string(*requested)),
			map[string]any{"allowed": []domain.TicketPriority{domain.TicketPriorityHigh, domain.TicketPriorityMedium, domain.TicketPriorityLow}},
		)
	}
	return requested, nil
}

// checkComment returns the trimmed body, empty when there is nothing to add.
func checkComment(actor domain.User, requested *string) (string, error) {
	if requested == nil {
		return "", nil
	}
	body := strings.TrimSpace(*requested)
	if body == "" {
		return "", nil
	}
	if !CanMutate(actor.Role, FieldComment) {
		return "", apperrors.NewForbidden("role may not comment")
	}
	return body, nil
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
