package domain

import "time"

// UserRole enumerates who may do what on a ticket.
type UserRole string

const (
	UserRoleRequester UserRole = "REQUESTER"
	UserRoleAgent     UserRole = "AGENT"
	UserRoleAdmin     UserRole = "ADMIN"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleRequester, UserRoleAgent, UserRoleAdmin:
		return true
	}
	return false
}

// User is anyone who submits or works tickets. Email is the unique lookup key.
type User struct {
	ID         string
	Email      string
	Name       *string
	Department *string
	Role       UserRole
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
