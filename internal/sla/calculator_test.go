package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

func at(day int, hour int) time.Time {
	// October 2026: the 19th is a Monday.
	return time.Date(2026, time.October, day, hour, 30, 0, 0, time.UTC)
}

func TestDueAt(t *testing.T) {
	cases := []struct {
		name     string
		start    time.Time
		priority domain.TicketPriority
		want     time.Time
	}{
		{"high from monday", at(19, 9), domain.TicketPriorityHigh, at(20, 9)},
		{"medium from monday", at(19, 9), domain.TicketPriorityMedium, at(22, 9)},
		{"low from monday", at(19, 9), domain.TicketPriorityLow, at(26, 9)},
		{"high from friday skips weekend", at(23, 17), domain.TicketPriorityHigh, at(26, 17)},
		{"medium from thursday", at(22, 8), domain.TicketPriorityMedium, at(27, 8)},
		{"high from saturday", at(24, 11), domain.TicketPriorityHigh, at(26, 11)},
		{"high from sunday", at(25, 11), domain.TicketPriorityHigh, at(26, 11)},
		{"low from saturday", at(24, 11), domain.TicketPriorityLow, at(30, 11)},
		{"unknown priority uses medium window", at(19, 9), domain.TicketPriority("URGENT"), at(22, 9)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DueAt(tc.start, tc.priority))
		})
	}
}

func TestDueAtCountsOnlyWeekdays(t *testing.T) {
	for _, priority := range []domain.TicketPriority{domain.TicketPriorityHigh, domain.TicketPriorityMedium, domain.TicketPriorityLow} {
		for offset := 0; offset < 7; offset++ {
			start := at(19+offset, 10)
			due := DueAt(start, priority)

			weekdays := 0
			for d := start.AddDate(0, 0, 1); !d.After(due); d = d.AddDate(0, 0, 1) {
				if isBusinessDay(d) {
					weekdays++
				}
			}
			assert.Equal(t, WindowDays(priority), weekdays, "priority %s start %s", priority, start.Weekday())
			assert.True(t, isBusinessDay(due), "due instant must land on a weekday")
			assert.Equal(t, start.Hour(), due.Hour())
			assert.Equal(t, start.Minute(), due.Minute())
		}
	}
}
