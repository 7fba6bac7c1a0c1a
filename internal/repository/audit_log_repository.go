package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// AuditLogRepository stores audit entries. It is append-only: there is no
// update or delete.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	// CreateBatch inserts all entries or none of them.
	CreateBatch(ctx context.Context, entries []domain.AuditLog) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLog, error)
}

type auditLogRepository struct {
	db DBTX
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepository{db: db}
}

const insertAuditLog = `
        INSERT INTO audit_logs (id, ticket_id, actor_user_id, action, field_name, old_value, new_value, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

func auditArgs(entry *domain.AuditLog) []any {
	return []any{
		entry.ID,
		entry.TicketID,
		entry.ActorUserID,
		entry.Action,
		entry.FieldName,
		entry.OldValue,
		entry.NewValue,
		entry.CreatedAt,
	}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	_, err := r.db.Exec(ctx, insertAuditLog, auditArgs(entry)...)
	return translate(err)
}

// CreateBatch runs inside its own transaction, or a savepoint when r is
// already bound to one.
func (r *auditLogRepository) CreateBatch(ctx context.Context, entries []domain.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range entries {
			batch.Queue(insertAuditLog, auditArgs(&entries[i])...)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	return translate(err)
}

func (r *auditLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLog, error) {
	const query = `
        SELECT id, ticket_id, actor_user_id, action, field_name, old_value, new_value, created_at
        FROM audit_logs WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	result := []domain.AuditLog{}
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActorUserID,
			&entry.Action,
			&entry.FieldName,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
