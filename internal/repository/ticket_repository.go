package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	RequesterID  *string
	AssignedTeam *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SLAStatus    *domain.SLAStatus
	SearchTerm   *string
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate reads a ticket and locks its row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// ListBreachCandidates returns ids of tickets due before now that are not yet BREACHED.
	ListBreachCandidates(ctx context.Context, now time.Time) ([]string, error)
	// MarkBreached flags the given tickets BREACHED in one statement and
	// returns the ids that actually changed. A ticket whose due instant moved
	// past now since it was listed is left alone.
	MarkBreached(ctx context.Context, ids []string, now time.Time) ([]string, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, title, description, affected_system, is_blocking, requested_timeline, try_kb_first,
               requester_user_id, assigned_team, priority, summary, knowledge_suggestions,
               status, sla_due_at, sla_status, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, description, affected_system, is_blocking, requested_timeline, try_kb_first,
            requester_user_id, assigned_team, priority, summary, knowledge_suggestions,
            status, sla_due_at, sla_status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
	suggestions := ticket.KnowledgeSuggestions
	if suggestions == nil {
		suggestions = []domain.KnowledgeSuggestion{}
	}
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.AffectedSystem,
		ticket.IsBlocking,
		ticket.RequestedTimeline,
		ticket.TryKBFirst,
		ticket.RequesterUserID,
		ticket.AssignedTeam,
		ticket.Priority,
		ticket.Summary,
		suggestions,
		ticket.Status,
		ticket.SLADueAt,
		ticket.SLAStatus,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return translate(err)
}

// Update writes the mutable lifecycle fields. Content and ownership are fixed at creation.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, assigned_team=$2, priority=$3, sla_due_at=$4, sla_status=$5, updated_at=$6
        WHERE id=$7`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Status,
		ticket.AssignedTeam,
		ticket.Priority,
		ticket.SLADueAt,
		ticket.SLAStatus,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.getOne(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.getOne(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, id)
}

func (r *ticketRepository) getOne(ctx context.Context, query, id string) (*domain.Ticket, error) {
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, translate(err)
	}
	if len(tickets) == 0 {
		return nil, ErrNotFound
	}
	return &tickets[0], nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_user_id=$%d", len(args)))
	}
	if filter.AssignedTeam != nil {
		args = append(args, *filter.AssignedTeam)
		clauses = append(clauses, fmt.Sprintf("assigned_team=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SLAStatus != nil {
		args = append(args, *filter.SLAStatus)
		clauses = append(clauses, fmt.Sprintf("sla_status=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListBreachCandidates(ctx context.Context, now time.Time) ([]string, error) {
	const query = `SELECT id FROM tickets WHERE sla_due_at < $1 AND sla_status <> $2`
	rows, err := r.db.Query(ctx, query, now, domain.SLAStatusBreached)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ticketRepository) MarkBreached(ctx context.Context, ids []string, now time.Time) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	const query = `
        UPDATE tickets SET sla_status=$1, updated_at=$2
        WHERE id = ANY($3) AND sla_status <> $1 AND sla_due_at < $2
        RETURNING id`
	rows, err := r.db.Query(ctx, query, domain.SLAStatusBreached, now, ids)
	if err != nil {
		return nil, translate(err)
	}
	changed, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translate(err)
	}
	if changed == nil {
		changed = []string{}
	}
	return changed, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.AffectedSystem,
			&ticket.IsBlocking,
			&ticket.RequestedTimeline,
			&ticket.TryKBFirst,
			&ticket.RequesterUserID,
			&ticket.AssignedTeam,
			&ticket.Priority,
			&ticket.Summary,
			&ticket.KnowledgeSuggestions,
			&ticket.Status,
			&ticket.SLADueAt,
			&ticket.SLAStatus,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
