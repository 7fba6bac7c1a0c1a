package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusWaiting    TicketStatus = "WAITING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusWaiting, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority drives the SLA window.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityLow    TicketPriority = "LOW"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	}
	return false
}

// SLAStatus is ON_TRACK until the sweeper observes the due instant passing.
type SLAStatus string

const (
	SLAStatusOnTrack  SLAStatus = "ON_TRACK"
	SLAStatusBreached SLAStatus = "BREACHED"
)

// RequestedTimeline is the requester's own urgency hint.
type RequestedTimeline string

const (
	TimelineASAP     RequestedTimeline = "ASAP"
	TimelineToday    RequestedTimeline = "TODAY"
	TimelineThisWeek RequestedTimeline = "THIS_WEEK"
	TimelineNoRush   RequestedTimeline = "NO_RUSH"
)

// Valid reports whether t is a known timeline.
func (t RequestedTimeline) Valid() bool {
	switch t {
	case TimelineASAP, TimelineToday, TimelineThisWeek, TimelineNoRush:
		return true
	}
	return false
}

// DefaultTeam is used whenever triage cannot name a team.
const DefaultTeam = "Other / General"

// TicketSummary is the triage-produced digest of a ticket.
type TicketSummary struct {
	Problem         *string `json:"problem"`
	Impact          *string `json:"impact"`
	RequestedAction *string `json:"requestedAction"`
}

// KnowledgeSuggestion points the requester at a knowledge-base article.
type KnowledgeSuggestion struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                   string
	Title                string
	Description          string
	AffectedSystem       *string
	IsBlocking           bool
	RequestedTimeline    *RequestedTimeline
	TryKBFirst           bool
	RequesterUserID      string
	AssignedTeam         string
	Priority             TicketPriority
	Summary              TicketSummary
	KnowledgeSuggestions []KnowledgeSuggestion
	Status               TicketStatus
	SLADueAt             time.Time
	SLAStatus            SLAStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
