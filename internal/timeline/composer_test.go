package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/audit"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/repository/memory"
)

func TestCompose_OrdersNewestFirst(t *testing.T) {
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	logs := []domain.AuditLog{
		audit.Entry("t", "u-1", domain.AuditTicketCreated, nil, nil, nil, base),
		audit.FieldChange("t", "u-2", domain.AuditStatusChanged, domain.FieldStatus, "NEW", "IN_PROGRESS", base.Add(2*time.Hour)),
	}
	comments := []domain.Comment{{ID: "c-1", TicketID: "t", AuthorUserID: "u-2", Body: "looking into it", CreatedAt: base.Add(time.Hour)}}
	actors := map[string]domain.User{"u-2": {ID: "u-2", Email: "agent@example.com", Role: domain.UserRoleAgent}}

	events := Compose(logs, comments, actors)
	require.Len(t, events, 3)

	assert.Equal(t, "Status changed: NEW → IN_PROGRESS", events[0].Message)
	require.NotNil(t, events[0].Actor)
	assert.Equal(t, "agent@example.com", events[0].Actor.Email)
	require.NotNil(t, events[0].Action)
	assert.Equal(t, domain.AuditStatusChanged, *events[0].Action)

	assert.Equal(t, domain.TimelineEventComment, events[1].Kind)
	assert.Equal(t, "looking into it", events[1].Message)
	require.NotNil(t, events[1].Body)

	assert.Equal(t, "Ticket created", events[2].Message)
	assert.Nil(t, events[2].Actor)
	assert.Equal(t, "u-1", events[2].ActorID)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].CreatedAt.After(events[i-1].CreatedAt))
	}
}

func TestCompose_Empty(t *testing.T) {
	events := Compose(nil, nil, nil)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestComposer_Timeline(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Users.Create(ctx, &domain.User{ID: "u-1", Email: "req@example.com", Role: domain.UserRoleRequester}))
	require.NoError(t, repos.Tickets.Create(ctx, &domain.Ticket{ID: "t-1", Title: "VPN", RequesterUserID: "u-1", CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, repos.AuditLogs.CreateBatch(ctx, []domain.AuditLog{
		audit.Entry("t-1", "u-1", domain.AuditTicketCreated, nil, nil, nil, base),
		audit.Entry("t-1", "u-gone", domain.AuditCommentAdded, nil, nil, nil, base.Add(time.Minute)),
		audit.Entry("t-other", "u-1", domain.AuditTicketCreated, nil, nil, nil, base),
	}))
	require.NoError(t, repos.Comments.Create(ctx, &domain.Comment{ID: "c-1", TicketID: "t-1", AuthorUserID: "u-gone", Body: "hello", CreatedAt: base.Add(time.Minute)}))

	events, err := NewComposer(repos).Timeline(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Ticket created", events[2].Message)
	require.NotNil(t, events[2].Actor)
	assert.Equal(t, "req@example.com", events[2].Actor.Email)
	for _, e := range events[:2] {
		assert.Nil(t, e.Actor)
	}

	_, err = NewComposer(repos).Timeline(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
