package dto

import (
	"time"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// CreateUserRequest payload.
type CreateUserRequest struct {
	Email      string           `json:"email"`
	Name       *string          `json:"name"`
	Department *string          `json:"department"`
	Role       *domain.UserRole `json:"role"`
}

// UpdateUserRequest payload.
type UpdateUserRequest struct {
	Name       *string          `json:"name"`
	Department *string          `json:"department"`
	Role       *domain.UserRole `json:"role"`
}

// UserResponse represents a user.
type UserResponse struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	Name       *string         `json:"name"`
	Department *string         `json:"department"`
	Role       domain.UserRole `json:"role"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// TokenResponse returns an actor token.
type TokenResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// NewUserResponse maps a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Department: u.Department,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
