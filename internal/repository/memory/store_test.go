package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

var now = time.Date(2026, 11, 18, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *Store, id string, due time.Time) {
	t.Helper()
	ticket := domain.Ticket{
		ID:              id,
		Title:           "ticket " + id,
		RequesterUserID: "u-1",
		Priority:        domain.TicketPriorityMedium,
		Status:          domain.TicketStatusNew,
		SLADueAt:        due,
		SLAStatus:       domain.SLAStatusOnTrack,
		CreatedAt:       due.Add(-72 * time.Hour),
		UpdatedAt:       due.Add(-72 * time.Hour),
	}
	require.NoError(t, store.Repositories().Tickets.Create(context.Background(), &ticket))
}

func TestWithinTx_WritesOutsideTxSurviveCommit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seed(t, store, "a", now.Add(-time.Hour))
	seed(t, store, "b", time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC))

	breached := make(chan []string, 1)
	created := make(chan error, 1)
	err := store.WithinTx(ctx, func(tx repository.Repositories) error {
		go func() {
			changed, err := store.Repositories().Tickets.MarkBreached(ctx, []string{"b"}, now)
			if err != nil {
				changed = nil
			}
			breached <- changed
		}()
		go func() {
			created <- store.Repositories().Users.Create(ctx, &domain.User{ID: "u-9", Email: "admin-made@example.com", Role: domain.UserRoleAgent})
		}()

		ticket, err := tx.Tickets.GetByID(ctx, "a")
		if err != nil {
			return err
		}
		ticket.Status = domain.TicketStatusInProgress
		ticket.UpdatedAt = now
		return tx.Tickets.Update(ctx, ticket)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, <-breached)
	require.NoError(t, <-created)

	repos := store.Repositories()
	a, err := repos.Tickets.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, a.Status)
	b, err := repos.Tickets.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, domain.SLAStatusBreached, b.SLAStatus)
	_, err = repos.Users.GetByEmail(ctx, "admin-made@example.com")
	assert.NoError(t, err)
}

func TestWithinTx_RollbackDiscardsTxWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seed(t, store, "a", now.Add(time.Hour))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx repository.Repositories) error {
		ticket, err := tx.Tickets.GetForUpdate(ctx, "a")
		require.NoError(t, err)
		ticket.Status = domain.TicketStatusInProgress
		require.NoError(t, tx.Tickets.Update(ctx, ticket))
		require.NoError(t, tx.Comments.Create(ctx, &domain.Comment{ID: "c-1", TicketID: "a", Body: "hi"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ticket, err := store.Repositories().Tickets.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	comments, err := store.Repositories().Comments.ListByTicket(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestMarkBreached_SkipsFlaggedAndNotYetDue(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	seed(t, store, "overdue", now.Add(-time.Minute))
	seed(t, store, "due-now", now)
	seed(t, store, "moved", now.Add(48*time.Hour))

	tickets := store.Repositories().Tickets
	changed, err := tickets.MarkBreached(ctx, []string{"overdue", "due-now", "moved", "missing"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"overdue"}, changed)

	changed, err = tickets.MarkBreached(ctx, []string{"overdue"}, now)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestUsers_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Repositories().Users

	first := domain.User{ID: "u-1", Email: "req@example.com", Role: domain.UserRoleRequester}
	created, err := users.CreateIfAbsent(ctx, &first)
	require.NoError(t, err)
	assert.True(t, created)

	second := domain.User{ID: "u-2", Email: "req@example.com", Role: domain.UserRoleRequester}
	created, err = users.CreateIfAbsent(ctx, &second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "u-1", second.ID)

	clash := domain.User{ID: "u-1", Email: "other@example.com", Role: domain.UserRoleRequester}
	_, err = users.CreateIfAbsent(ctx, &clash)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
