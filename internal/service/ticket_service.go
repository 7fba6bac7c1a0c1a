package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/audit"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/lifecycle"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/timeline"
	"github.com/spec-kit/ticket-desk/internal/triage"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// Triager produces routing for a new ticket. It never fails.
type Triager interface {
	Triage(ctx context.Context, draft triage.Draft) triage.Result
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	machine    *lifecycle.Machine
	triage     Triager
	dispatcher events.Dispatcher
	clock      func() time.Time
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Machine    *lifecycle.Machine
	Triage     Triager
	Dispatcher events.Dispatcher
	Clock      func() time.Time
	Logger     *zap.Logger
}

// TicketCreateInput describes a ticket submission.
type TicketCreateInput struct {
	Email             string
	Name              *string
	Department        *string
	Title             string
	Description       string
	AffectedSystem    *string
	IsBlocking        bool
	RequestedTimeline *domain.RequestedTimeline
	TryKBFirst        *bool
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	AssignedTeam *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SLAStatus    *domain.SLAStatus
	SearchTerm   *string
	Limit        int
	Offset       int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		store:      deps.Store,
		machine:    deps.Machine,
		triage:     deps.Triage,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.triage == nil {
		s.triage = triage.NewAdapter(nil, 0, s.logger, nil)
	}
	return s
}

// CreateTicket triages and opens a ticket, creating the requester on first
// contact. The requester, ticket and TICKET_CREATED entry commit together.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	input, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repositories()
	requester, isNew, err := s.resolveRequester(ctx, repos, input)
	if err != nil {
		return nil, err
	}

	routing := s.triage.Triage(ctx, triage.Draft{
		Title:             input.Title,
		Description:       input.Description,
		AffectedSystem:    input.AffectedSystem,
		IsBlocking:        input.IsBlocking,
		RequestedTimeline: input.RequestedTimeline,
		TryKBFirst:        *input.TryKBFirst,
		Department:        requester.Department,
	})

	now := s.clock().UTC()
	ticket, created := s.machine.Open(domain.Ticket{
		ID:                   uuid.NewString(),
		Title:                input.Title,
		Description:          input.Description,
		AffectedSystem:       input.AffectedSystem,
		IsBlocking:           input.IsBlocking,
		RequestedTimeline:    input.RequestedTimeline,
		TryKBFirst:           *input.TryKBFirst,
		RequesterUserID:      requester.ID,
		AssignedTeam:         routing.AssignedTeam,
		Priority:             routing.Priority,
		Summary:              routing.Summary,
		KnowledgeSuggestions: routing.KnowledgeSuggestions,
	}, now)

	err = s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if isNew {
			requester.CreatedAt, requester.UpdatedAt = now, now
			inserted, err := tx.Users.CreateIfAbsent(ctx, &requester)
			if err != nil {
				return err
			}
			if !inserted {
				// a concurrent first submission registered this email
				ticket.RequesterUserID = requester.ID
				created.ActorUserID = requester.ID
			}
		}
		if err := tx.Tickets.Create(ctx, &ticket); err != nil {
			return err
		}
		return audit.NewRecorder(tx.AuditLogs, s.clock).RecordBatch(ctx, []domain.AuditLog{created})
	})
	if err != nil {
		return nil, storeError("ticket", err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("assigned_team", ticket.AssignedTeam),
		zap.String("priority", string(ticket.Priority)),
		zap.Bool("triage_fallback", routing.Fallback))
	s.publish(ctx, events.New(events.EventTicketCreated, ticket.ID, events.UserActor(requester), now,
		events.TicketCreatedPayload{
			Title:        ticket.Title,
			AssignedTeam: ticket.AssignedTeam,
			Priority:     ticket.Priority,
			SLADueAt:     ticket.SLADueAt,
			Triaged:      !routing.Fallback,
		}))
	return &ticket, nil
}

// GetTicket fetches a ticket the actor may see.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Repositories().Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError("ticket", err)
	}
	if err := checkOwnership(actor, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListTickets lists tickets; requesters only ever see their own.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		AssignedTeam: filter.AssignedTeam,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SLAStatus:    filter.SLAStatus,
		SearchTerm:   filter.SearchTerm,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if actor.Role == domain.UserRoleRequester {
		id := actor.ID
		repoFilter.RequesterID = &id
	}
	tickets, err := s.store.Repositories().Tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, storeError("ticket", err)
	}
	return tickets, nil
}

// UpdateTicket applies a mutation on behalf of actorID. The ticket is read
// and locked in the same transaction that writes the row, any comment, and
// every audit entry. A request with no effective change writes nothing and
// returns the ticket as stored.
func (s *TicketService) UpdateTicket(ctx context.Context, actorID, ticketID string, update lifecycle.Update) (*domain.Ticket, []domain.AuditLog, error) {
	actor, err := s.store.Repositories().Users.GetByID(ctx, actorID)
	if err != nil {
		return nil, nil, storeError("actor", err)
	}

	now := s.clock().UTC()
	var result lifecycle.Result
	err = s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		ticket, err := tx.Tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := checkOwnership(*actor, ticket); err != nil {
			return err
		}
		result, err = s.machine.Apply(*ticket, *actor, update, now)
		if err != nil || !result.Changed() {
			return err
		}
		if err := tx.Tickets.Update(ctx, &result.Ticket); err != nil {
			return err
		}
		if result.Comment != nil {
			if err := tx.Comments.Create(ctx, result.Comment); err != nil {
				return err
			}
		}
		return audit.NewRecorder(tx.AuditLogs, s.clock).RecordBatch(ctx, result.AuditEntries)
	})
	if err != nil {
		return nil, nil, storeError("ticket", err)
	}
	if !result.Changed() {
		return &result.Ticket, result.AuditEntries, nil
	}

	s.logger.Info("ticket updated",
		zap.String("ticket_id", ticketID),
		zap.String("actor_id", actor.ID),
		zap.Int("audit_entries", len(result.AuditEntries)))
	s.publish(ctx, events.New(events.EventTicketUpdated, ticketID, events.UserActor(*actor), now, updatedPayload(result)))
	return &result.Ticket, result.AuditEntries, nil
}

// Timeline returns the merged history of a ticket the actor may see.
func (s *TicketService) Timeline(ctx context.Context, actor domain.User, ticketID string) ([]domain.TimelineEvent, error) {
	if _, err := s.GetTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	history, err := timeline.NewComposer(s.store.Repositories()).Timeline(ctx, ticketID)
	if err != nil {
		return nil, storeError("ticket", err)
	}
	return history, nil
}

func (s *TicketService) resolveRequester(ctx context.Context, repos repository.Repositories, input TicketCreateInput) (domain.User, bool, error) {
	existing, err := repos.Users.GetByEmail(ctx, input.Email)
	if err == nil {
		return *existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, false, storeError("user", err)
	}
	return domain.User{
		ID:         uuid.NewString(),
		Email:      input.Email,
		Name:       input.Name,
		Department: input.Department,
		Role:       domain.UserRoleRequester,
	}, true, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func validateCreate(input TicketCreateInput) (TicketCreateInput, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Name = trimOptional(input.Name)
	input.Department = trimOptional(input.Department)
	input.AffectedSystem = trimOptional(input.AffectedSystem)

	missing := []string{}
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if input.Title == "" {
		missing = append(missing, "title")
	}
	if input.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return input, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if !strings.Contains(input.Email, "@") {
		return input, apperrors.NewValidationError("invalid email", map[string]any{"email": input.Email})
	}
	if input.RequestedTimeline != nil && !input.RequestedTimeline.Valid() {
		return input, apperrors.NewValidationError("invalid requestedTimeline",
			map[string]any{"requestedTimeline": string(*input.RequestedTimeline)})
	}
	if input.TryKBFirst == nil {
		tryKB := true
		input.TryKBFirst = &tryKB
	}
	return input, nil
}

func checkOwnership(actor domain.User, ticket *domain.Ticket) error {
	if actor.Role == domain.UserRoleRequester && ticket.RequesterUserID != actor.ID {
		return apperrors.NewForbidden("requesters may only access their own tickets")
	}
	return nil
}

func updatedPayload(result lifecycle.Result) events.TicketUpdatedPayload {
	payload := events.TicketUpdatedPayload{Status: result.Ticket.Status, Changes: []events.FieldChange{}}
	for _, entry := range result.AuditEntries {
		if entry.FieldName == nil {
			continue
		}
		payload.Changes = append(payload.Changes, events.FieldChange{
			Field:    *entry.FieldName,
			OldValue: entry.OldValue,
			NewValue: entry.NewValue,
		})
	}
	if result.Comment != nil {
		id := result.Comment.ID
		payload.CommentID = &id
	}
	return payload
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
