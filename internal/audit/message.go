package audit

import (
	"fmt"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// FormatMessage renders a one-line, human readable description of entry.
func FormatMessage(entry domain.AuditLog) string {
	switch entry.Action {
	case domain.AuditTicketCreated:
		return "Ticket created"
	case domain.AuditStatusChanged:
		return change("Status", entry)
	case domain.AuditTeamChanged:
		return change("Team", entry)
	case domain.AuditPriorityChanged:
		return change("Priority", entry)
	case domain.AuditSLAUpdated:
		return change("SLA", entry)
	case domain.AuditCommentAdded:
		return "Comment added"
	}
	if entry.FieldName != nil {
		return fmt.Sprintf("%s: %s", entry.Action, *entry.FieldName)
	}
	if entry.Action != "" {
		return string(entry.Action)
	}
	return "Activity"
}

func change(label string, entry domain.AuditLog) string {
	verb := "changed"
	if entry.Action == domain.AuditSLAUpdated {
		verb = "updated"
	}
	return fmt.Sprintf("%s %s: %s → %s", label, verb, deref(entry.OldValue), deref(entry.NewValue))
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
