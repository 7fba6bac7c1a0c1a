package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

// Entry builds an unsaved audit row stamped at the given instant.
func Entry(ticketID, actorID string, action domain.AuditAction, fieldName, oldValue, newValue *string, at time.Time) domain.AuditLog {
	return domain.AuditLog{
		ID:          uuid.NewString(),
		TicketID:    ticketID,
		ActorUserID: actorID,
		Action:      action,
		FieldName:   fieldName,
		OldValue:    oldValue,
		NewValue:    newValue,
		CreatedAt:   at,
	}
}

// FieldChange builds an entry for a field moving from oldValue to newValue.
func FieldChange(ticketID, actorID string, action domain.AuditAction, field, oldValue, newValue string, at time.Time) domain.AuditLog {
	return Entry(ticketID, actorID, action, &field, &oldValue, &newValue, at)
}

// Recorder appends audit rows. It never updates or deletes.
type Recorder struct {
	repo  repository.AuditLogRepository
	clock func() time.Time
}

// NewRecorder binds a recorder to repo, typically the transaction-scoped one.
func NewRecorder(repo repository.AuditLogRepository, clock func() time.Time) *Recorder {
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{repo: repo, clock: clock}
}

// Record appends a single entry and returns it.
func (r *Recorder) Record(ctx context.Context, ticketID, actorID string, action domain.AuditAction, fieldName, oldValue, newValue *string) (domain.AuditLog, error) {
	entry := Entry(ticketID, actorID, action, fieldName, oldValue, newValue, r.clock().UTC())
	if err := r.repo.Create(ctx, &entry); err != nil {
		return domain.AuditLog{}, fmt.Errorf("record audit %s: %w", action, err)
	}
	return entry, nil
}

// RecordBatch appends entries atomically; either all persist or the error is returned.
func (r *Recorder) RecordBatch(ctx context.Context, entries []domain.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = r.clock().UTC()
		}
	}
	if err := r.repo.CreateBatch(ctx, entries); err != nil {
		return fmt.Errorf("record audit batch: %w", err)
	}
	return nil
}
