// Package timeline merges a ticket's audit trail and comments into one
// newest-first history.
package timeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/spec-kit/ticket-desk/internal/audit"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

// Composer reads history for a ticket. It never writes.
type Composer struct {
	repos repository.Repositories
}

// NewComposer builds a composer over repos.
func NewComposer(repos repository.Repositories) *Composer {
	return &Composer{repos: repos}
}

// Timeline returns every audit row and comment for ticketID, most recent first.
// It returns repository.ErrNotFound when the ticket does not exist.
func (c *Composer) Timeline(ctx context.Context, ticketID string) ([]domain.TimelineEvent, error) {
	if _, err := c.repos.Tickets.GetByID(ctx, ticketID); err != nil {
		return nil, fmt.Errorf("load ticket %s: %w", ticketID, err)
	}
	logs, err := c.repos.AuditLogs.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	comments, err := c.repos.Comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	actors, err := c.resolveActors(ctx, logs, comments)
	if err != nil {
		return nil, err
	}
	return Compose(logs, comments, actors), nil
}

// Compose is the pure merge step. actors maps user id to user; ids missing
// from it yield a nil Actor.
func Compose(logs []domain.AuditLog, comments []domain.Comment, actors map[string]domain.User) []domain.TimelineEvent {
	events := make([]domain.TimelineEvent, 0, len(logs)+len(comments))
	for _, entry := range logs {
		action := entry.Action
		events = append(events, domain.TimelineEvent{
			Kind:      domain.TimelineEventAudit,
			ID:        entry.ID,
			TicketID:  entry.TicketID,
			Actor:     lookup(actors, entry.ActorUserID),
			ActorID:   entry.ActorUserID,
			Message:   audit.FormatMessage(entry),
			Action:    &action,
			FieldName: entry.FieldName,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			CreatedAt: entry.CreatedAt,
		})
	}
	for _, comment := range comments {
		body := comment.Body
		events = append(events, domain.TimelineEvent{
			Kind:      domain.TimelineEventComment,
			ID:        comment.ID,
			TicketID:  comment.TicketID,
			Actor:     lookup(actors, comment.AuthorUserID),
			ActorID:   comment.AuthorUserID,
			Message:   body,
			Body:      &body,
			CreatedAt: comment.CreatedAt,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events
}

func (c *Composer) resolveActors(ctx context.Context, logs []domain.AuditLog, comments []domain.Comment) (map[string]domain.User, error) {
	seen := map[string]struct{}{}
	ids := []string{}
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, entry := range logs {
		add(entry.ActorUserID)
	}
	for _, comment := range comments {
		add(comment.AuthorUserID)
	}
	actors := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return actors, nil
	}
	users, err := c.repos.Users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve actors: %w", err)
	}
	for _, user := range users {
		actors[user.ID] = user
	}
	return actors, nil
}

func lookup(actors map[string]domain.User, id string) *domain.User {
	user, ok := actors[id]
	if !ok {
		return nil
	}
	return &user
}
