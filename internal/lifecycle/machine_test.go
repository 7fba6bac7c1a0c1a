package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/sla"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

var (
	created = time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	now     = time.Date(2026, 10, 19, 10, 15, 0, 0, time.UTC) // Monday
)

func newMachine() *Machine {
	return NewMachine(DefaultTransitions(), sla.DueAt)
}

func ticketIn(status domain.TicketStatus, priority domain.TicketPriority) domain.Ticket {
	return domain.Ticket{
		ID:              "ticket-1",
		Title:           "VPN drops",
		RequesterUserID: "requester-1",
		AssignedTeam:    "IT Support",
		Priority:        priority,
		Status:          status,
		SLADueAt:        sla.DueAt(created, priority),
		SLAStatus:       domain.SLAStatusBreached,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func user(role domain.UserRole) domain.User {
	return domain.User{ID: string(role) + "-1", Email: "x@example.com", Role: role}
}

func statusPtr(s domain.TicketStatus) *domain.TicketStatus       { return &s }
func priorityPtr(p domain.TicketPriority) *domain.TicketPriority { return &p }
func strPtr(s string) *string                                    { return &s }

func TestDefaultTransitions(t *testing.T) {
	tr := DefaultTransitions()
	all := []domain.TicketStatus{
		domain.TicketStatusNew, domain.TicketStatusInProgress, domain.TicketStatusWaiting,
		domain.TicketStatusResolved, domain.TicketStatusClosed,
	}
	allowed := map[[2]domain.TicketStatus]bool{
		{domain.TicketStatusNew, domain.TicketStatusInProgress}:        true,
		{domain.TicketStatusInProgress, domain.TicketStatusWaiting}:    true,
		{domain.TicketStatusInProgress, domain.TicketStatusResolved}:   true,
		{domain.TicketStatusWaiting, domain.TicketStatusInProgress}:    true,
		{domain.TicketStatusResolved, domain.TicketStatusClosed}:       true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]domain.TicketStatus{from, to}], tr.Allows(from, to), "%s -> %s", from, to)
		}
	}
	assert.Empty(t, tr.Next(domain.TicketStatusClosed))
	assert.Equal(t, []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusWaiting}, tr.Next(domain.TicketStatusInProgress))
}

func TestCanMutate(t *testing.T) {
	assert.True(t, CanMutate(domain.UserRoleRequester, FieldStatus))
	assert.True(t, CanMutate(domain.UserRoleRequester, FieldComment))
	assert.False(t, CanMutate(domain.UserRoleRequester, FieldAssignedTeam))
	assert.False(t, CanMutate(domain.UserRoleRequester, FieldPriority))
	for _, role := range []domain.UserRole{domain.UserRoleAgent, domain.UserRoleAdmin} {
		for _, f := range []Field{FieldStatus, FieldAssignedTeam, FieldPriority, FieldComment} {
			assert.True(t, CanMutate(role, f), "%s %s", role, f)
		}
	}
	assert.False(t, CanMutate(domain.UserRole("GUEST"), FieldComment))
}

func TestOpen(t *testing.T) {
	ticket, entry := newMachine().Open(domain.Ticket{
		RequesterUserID: "requester-1",
		Priority:        domain.TicketPriorityHigh,
		Status:          domain.TicketStatusClosed,
	}, now)

	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, domain.SLAStatusOnTrack, ticket.SLAStatus)
	assert.Equal(t, now.AddDate(0, 0, 1), ticket.SLADueAt)
	assert.Equal(t, now, ticket.CreatedAt)
	assert.Equal(t, domain.AuditTicketCreated, entry.Action)
	assert.Equal(t, ticket.ID, entry.TicketID)
	assert.Equal(t, "requester-1", entry.ActorUserID)
}

func TestApply_StatusTransitionAllowed(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusNew, domain.TicketPriorityMedium)

	res, err := newMachine().Apply(ticket, user(domain.UserRoleAgent), Update{Status: statusPtr(domain.TicketStatusInProgress)}, now)
	require.NoError(t, err)
	require.Len(t, res.AuditEntries, 1)
	entry := res.AuditEntries[0]
	assert.Equal(t, domain.AuditStatusChanged, entry.Action)
	assert.Equal(t, "NEW", *entry.OldValue)
	assert.Equal(t, "IN_PROGRESS", *entry.NewValue)
	assert.Equal(t, domain.TicketStatusInProgress, res.Ticket.Status)
	assert.Equal(t, now, res.Ticket.UpdatedAt)
	assert.Equal(t, ticket.SLADueAt, res.Ticket.SLADueAt)
}

func TestApply_InvalidTransition(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusNew, domain.TicketPriorityMedium)

	res, err := newMachine().Apply(ticket, user(domain.UserRoleAdmin), Update{
		Status:       statusPtr(domain.TicketStatusResolved),
		AssignedTeam: strPtr("Facilities"),
		Comment:      strPtr("closing this out"),
	}, now)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeInvalidTransition, de.Code)
	assert.Equal(t, "NEW", de.Details["current"])
	assert.Equal(t, "RESOLVED", de.Details["requested"])
	assert.Contains(t, de.Message, "NEW -> RESOLVED")
	assert.Equal(t, ticket, res.Ticket)
	assert.Empty(t, res.AuditEntries)
	assert.Nil(t, res.Comment)
}

func TestApply_ClosedIsTerminal(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusClosed, domain.TicketPriorityLow)
	for _, to := range []domain.TicketStatus{domain.TicketStatusNew, domain.TicketStatusInProgress, domain.TicketStatusWaiting, domain.TicketStatusResolved} {
		_, err := newMachine().Apply(ticket, user(domain.UserRoleAdmin), Update{Status: statusPtr(to)}, now)
		assert.Equal(t, apperrors.CodeInvalidTransition, apperrors.CodeOf(err), "CLOSED -> %s", to)
	}
}

func TestApply_UnknownStatusIsValidationError(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusNew, domain.TicketPriorityMedium)
	_, err := newMachine().Apply(ticket, user(domain.UserRoleAgent), Update{Status: statusPtr("DONE")}, now)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestApply_RequesterCannotRoute(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusInProgress, domain.TicketPriorityLow)
	requester := user(domain.UserRoleRequester)

	res, err := newMachine().Apply(ticket, requester, Update{AssignedTeam: strPtr("Finance")}, now)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	assert.Equal(t, ticket, res.Ticket)
	assert.Empty(t, res.AuditEntries)

	res, err = newMachine().Apply(ticket, requester, Update{Priority: priorityPtr(domain.TicketPriorityHigh)}, now)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	assert.Equal(t, ticket, res.Ticket)

	res, err = newMachine().Apply(ticket, requester, Update{
		Status:       statusPtr(domain.TicketStatusWaiting),
		AssignedTeam: strPtr("Finance"),
	}, now)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	assert.Equal(t, domain.TicketStatusInProgress, res.Ticket.Status)
}

func TestApply_RequesterSameValuesIsNoop(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusInProgress, domain.TicketPriorityLow)
	res, err := newMachine().Apply(ticket, user(domain.UserRoleRequester), Update{
		AssignedTeam: strPtr(ticket.AssignedTeam),
		Priority:     priorityPtr(ticket.Priority),
	}, now)
	require.NoError(t, err)
	assert.False(t, res.Changed())
}

func TestApply_PriorityChangeRecomputesSLA(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusInProgress, domain.TicketPriorityLow)

	res, err := newMachine().Apply(ticket, user(domain.UserRoleAgent), Update{Priority: priorityPtr(domain.TicketPriorityHigh)}, now)
	require.NoError(t, err)
	require.Len(t, res.AuditEntries, 2)
	assert.Equal(t, domain.AuditPriorityChanged, res.AuditEntries[0].Action)
	assert.Equal(t, "LOW", *res.AuditEntries[0].OldValue)
	assert.Equal(t, "HIGH", *res.AuditEntries[0].NewValue)
	assert.Equal(t, domain.AuditSLAUpdated, res.AuditEntries[1].Action)
	assert.Equal(t, domain.FieldSLADueAt, *res.AuditEntries[1].FieldName)
	assert.Equal(t, now.AddDate(0, 0, 1).Format(time.RFC3339), *res.AuditEntries[1].NewValue)

	assert.Equal(t, domain.TicketPriorityHigh, res.Ticket.Priority)
	assert.Equal(t, sla.DueAt(now, domain.TicketPriorityHigh), res.Ticket.SLADueAt)
	assert.Equal(t, domain.SLAStatusOnTrack, res.Ticket.SLAStatus)
}

func TestApply_InvalidPriority(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusInProgress, domain.TicketPriorityLow)
	_, err := newMachine().Apply(ticket, user(domain.UserRoleAgent), Update{Priority: priorityPtr("URGENT")}, now)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestApply_CommentOnly(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusWaiting, domain.TicketPriorityMedium)

	res, err := newMachine().Apply(ticket, user(domain.UserRoleRequester), Update{Comment: strPtr("  still broken  ")}, now)
	require.NoError(t, err)
	require.NotNil(t, res.Comment)
	assert.Equal(t, "still broken", res.Comment.Body)
	assert.Equal(t, "REQUESTER-1", res.Comment.AuthorUserID)
	require.Len(t, res.AuditEntries, 1)
	assert.Equal(t, domain.AuditCommentAdded, res.AuditEntries[0].Action)
}

func TestApply_CommentRequiresCapability(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusNew, domain.TicketPriorityMedium)
	guest := user(domain.UserRole("GUEST"))

	res, err := newMachine().Apply(ticket, guest, Update{Comment: strPtr("let me in")}, now)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	assert.Nil(t, res.Comment)
	assert.Empty(t, res.AuditEntries)
	assert.Equal(t, ticket, res.Ticket)

	res, err = newMachine().Apply(ticket, guest, Update{Comment: strPtr("   ")}, now)
	require.NoError(t, err)
	assert.False(t, res.Changed())
}

func TestApply_WhitespaceCommentIsNoop(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusWaiting, domain.TicketPriorityMedium)

	res, err := newMachine().Apply(ticket, user(domain.UserRoleAgent), Update{Comment: strPtr(" \n\t ")}, now)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Nil(t, res.Comment)
	assert.Equal(t, ticket, res.Ticket)
}

func TestApply_SameValuesIsNoop(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusWaiting, domain.TicketPriorityMedium)

	res, err := newMachine().Apply(ticket, user(domain.UserRoleAdmin), Update{
		Status:       statusPtr(ticket.Status),
		AssignedTeam: strPtr(ticket.AssignedTeam),
		Priority:     priorityPtr(ticket.Priority),
	}, now)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, created, res.Ticket.UpdatedAt)
}

func TestApply_AllFieldsInOrder(t *testing.T) {
	ticket := ticketIn(domain.TicketStatusWaiting, domain.TicketPriorityMedium)

	res, err := newMachine().Apply(ticket, user(domain.UserRoleAdmin), Update{
		Status:       statusPtr(domain.TicketStatusInProgress),
		AssignedTeam: strPtr("Network"),
		Priority:     priorityPtr(domain.TicketPriorityLow),
		Comment:      strPtr("moving to network"),
	}, now)
	require.NoError(t, err)

	actions := make([]domain.AuditAction, 0, len(res.AuditEntries))
	for _, e := range res.AuditEntries {
		actions = append(actions, e.Action)
		assert.Equal(t, "ADMIN-1", e.ActorUserID)
		assert.Equal(t, now, e.CreatedAt)
	}
	assert.Equal(t, []domain.AuditAction{
		domain.AuditStatusChanged,
		domain.AuditTeamChanged,
		domain.AuditPriorityChanged,
		domain.AuditSLAUpdated,
		domain.AuditCommentAdded,
	}, actions)
	assert.Equal(t, "Network", res.Ticket.AssignedTeam)
	assert.Equal(t, "IT Support", ticket.AssignedTeam)
}
