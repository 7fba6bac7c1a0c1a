package sla

import (
	"time"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// businessDays is the SLA window per priority.
var businessDays = map[domain.TicketPriority]int{
	domain.TicketPriorityHigh:   1,
	domain.TicketPriorityMedium: 3,
	domain.TicketPriorityLow:    5,
}

// WindowDays returns the number of business days granted to priority.
// Unknown priorities get the MEDIUM window.
func WindowDays(priority domain.TicketPriority) int {
	if days, ok := businessDays[priority]; ok {
		return days
	}
	return businessDays[domain.TicketPriorityMedium]
}

// DueAt walks forward one calendar day at a time from start, counting only
// Monday through Friday, and returns the instant on which the window is used
// up. The time of day is preserved; start itself is never counted.
func DueAt(start time.Time, priority domain.TicketPriority) time.Time {
	remaining := WindowDays(priority)
	due := start
	for remaining > 0 {
		due = due.AddDate(0, 0, 1)
		if isBusinessDay(due) {
			remaining--
		}
	}
	return due
}

func isBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}
