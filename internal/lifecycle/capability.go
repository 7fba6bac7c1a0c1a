package lifecycle

import "github.com/spec-kit/ticket-desk/internal/domain"

// Field names a mutable part of a ticket for capability checks.
type Field string

const (
	FieldStatus       Field = "status"
	FieldAssignedTeam Field = "assignedTeam"
	FieldPriority     Field = "priority"
	FieldComment      Field = "comment"
)

// routing fields are reserved for staff.
var staffOnly = map[Field]bool{
	FieldAssignedTeam: true,
	FieldPriority:     true,
}

// CanMutate reports whether role may change field.
func CanMutate(role domain.UserRole, field Field) bool {
	if !role.Valid() {
		return false
	}
	if staffOnly[field] {
		return role != domain.UserRoleRequester
	}
	return true
}
