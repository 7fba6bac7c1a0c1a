package lifecycle

import (
	"sort"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// Transitions is an immutable adjacency map from a status to the statuses it may move to.
type Transitions struct {
	edges map[domain.TicketStatus]map[domain.TicketStatus]struct{}
}

// NewTransitions copies edges into a Transitions value.
func NewTransitions(edges map[domain.TicketStatus][]domain.TicketStatus) Transitions {
	t := Transitions{edges: make(map[domain.TicketStatus]map[domain.TicketStatus]struct{}, len(edges))}
	for from, targets := range edges {
		set := make(map[domain.TicketStatus]struct{}, len(targets))
		for _, to := range targets {
			set[to] = struct{}{}
		}
		t.edges[from] = set
	}
	return t
}

// DefaultTransitions is the fixed ticket workflow. CLOSED is terminal.
func DefaultTransitions() Transitions {
	return NewTransitions(map[domain.TicketStatus][]domain.TicketStatus{
		domain.TicketStatusNew:        {domain.TicketStatusInProgress},
		domain.TicketStatusInProgress: {domain.TicketStatusWaiting, domain.TicketStatusResolved},
		domain.TicketStatusWaiting:    {domain.TicketStatusInProgress},
		domain.TicketStatusResolved:   {domain.TicketStatusClosed},
		domain.TicketStatusClosed:     {},
	})
}

// Allows reports whether from -> to is an edge.
func (t Transitions) Allows(from, to domain.TicketStatus) bool {
	_, ok := t.edges[from][to]
	return ok
}

// Next lists the statuses reachable from from in one step, sorted.
func (t Transitions) Next(from domain.TicketStatus) []domain.TicketStatus {
	next := make([]domain.TicketStatus, 0, len(t.edges[from]))
	for to := range t.edges[from] {
		next = append(next, to)
	}
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return next
}
