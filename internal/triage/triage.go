// Package triage classifies new tickets into a team, priority and summary.
// Classifier failures never reach callers: the Adapter always returns a
// usable Result, falling back to deterministic defaults.
package triage

import (
	"context"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// MaxKnowledgeSuggestions caps the suggestions kept on a ticket.
const MaxKnowledgeSuggestions = 2

// Draft is the ticket content shown to the classifier.
type Draft struct {
	Title             string
	Description       string
	AffectedSystem    *string
	IsBlocking        bool
	RequestedTimeline *domain.RequestedTimeline
	TryKBFirst        bool
	Department        *string
}

// RawOutput is the classifier's answer as parsed, before any validation.
type RawOutput map[string]any

// Classifier produces a raw triage answer for a draft.
type Classifier interface {
	Classify(ctx context.Context, draft Draft) (RawOutput, error)
}

// Result is a validated triage outcome.
type Result struct {
	AssignedTeam         string
	Priority             domain.TicketPriority
	Summary              domain.TicketSummary
	KnowledgeSuggestions []domain.KnowledgeSuggestion
	Fallback             bool
}

// Fallback is the routing used when no classifier answer is available.
// Blocking or ASAP drafts still get HIGH.
func Fallback(draft Draft) Result {
	priority := domain.TicketPriorityMedium
	if draft.IsBlocking || (draft.RequestedTimeline != nil && *draft.RequestedTimeline == domain.TimelineASAP) {
		priority = domain.TicketPriorityHigh
	}
	return Result{
		AssignedTeam:         domain.DefaultTeam,
		Priority:             priority,
		KnowledgeSuggestions: []domain.KnowledgeSuggestion{},
		Fallback:             true,
	}
}

// Normalize applies the defaulting rules to a raw answer.
func Normalize(raw RawOutput) Result {
	res := Result{
		AssignedTeam:         domain.DefaultTeam,
		Priority:             domain.TicketPriorityMedium,
		KnowledgeSuggestions: []domain.KnowledgeSuggestion{},
	}
	if team, ok := raw["assignedTeam"].(string); ok && strings.TrimSpace(team) != "" {
		res.AssignedTeam = strings.TrimSpace(team)
	}
	if p, ok := raw["priority"].(string); ok {
		if priority := domain.TicketPriority(strings.ToUpper(strings.TrimSpace(p))); priority.Valid() {
			res.Priority = priority
		}
	}
	if summary, ok := raw["summary"].(map[string]any); ok {
		res.Summary = domain.TicketSummary{
			Problem:         optionalString(summary["problem"]),
			Impact:          optionalString(summary["impact"]),
			RequestedAction: optionalString(summary["requestedAction"]),
		}
	}
	if items, ok := raw["knowledgeSuggestions"].([]any); ok {
		for _, item := range items {
			if len(res.KnowledgeSuggestions) == MaxKnowledgeSuggestions {
				break
			}
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			title, _ := obj["title"].(string)
			if strings.TrimSpace(title) == "" {
				continue
			}
			reason, _ := obj["reason"].(string)
			res.KnowledgeSuggestions = append(res.KnowledgeSuggestions, domain.KnowledgeSuggestion{
				Title:  strings.TrimSpace(title),
				Reason: strings.TrimSpace(reason),
			})
		}
	}
	return res
}

func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
