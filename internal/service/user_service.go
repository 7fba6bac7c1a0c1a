package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// UserService manages user records and actor tokens. Callers are admins.
type UserService struct {
	store    repository.Store
	tokenMgr *auth.TokenManager
	clock    func() time.Time
	logger   *zap.Logger
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	Store  repository.Store
	Tokens *auth.TokenManager
	Clock  func() time.Time
	Logger *zap.Logger
}

// UserCreateInput describes an admin-created user.
type UserCreateInput struct {
	Email      string
	Name       *string
	Department *string
	Role       *domain.UserRole
}

// UserUpdateInput lists mutable user fields. Nil fields are left alone.
type UserUpdateInput struct {
	Name       *string
	Department *string
	Role       *domain.UserRole
}

// IssuedToken is a signed actor token.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	s := &UserService{
		store:    deps.Store,
		tokenMgr: deps.Tokens,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// CreateUser registers a user. Emails are unique and matched exactly.
func (s *UserService) CreateUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("valid email required", map[string]any{"fields": []string{"email"}})
	}
	role := domain.UserRoleRequester
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, invalidRole(*input.Role)
		}
		role = *input.Role
	}

	now := s.clock().UTC()
	user := &domain.User{
		ID:         uuid.NewString(),
		Email:      email,
		Name:       trimOptional(input.Name),
		Department: trimOptional(input.Department),
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Repositories().Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewValidationError("email already registered", map[string]any{"email": email})
		}
		return nil, storeError("user", err)
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// UpdateUser changes name, department or role.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UserUpdateInput) (*domain.User, error) {
	if input.Role != nil && !input.Role.Valid() {
		return nil, invalidRole(*input.Role)
	}
	var updated *domain.User
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		user, err := tx.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			user.Name = trimOptional(input.Name)
		}
		if input.Department != nil {
			user.Department = trimOptional(input.Department)
		}
		if input.Role != nil {
			user.Role = *input.Role
		}
		user.UpdatedAt = s.clock().UTC()
		if err := tx.Users.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, storeError("user", err)
	}
	return updated, nil
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.store.Repositories().Users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("user", err)
	}
	return user, nil
}

// ListUsers pages through users in creation order.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.store.Repositories().Users.List(ctx, limit, offset)
	if err != nil {
		return nil, storeError("user", err)
	}
	return users, nil
}

// IssueToken signs an actor token for the user.
func (s *UserService) IssueToken(ctx context.Context, id string) (*IssuedToken, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.tokenMgr.GenerateToken(*user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &IssuedToken{Token: token, ExpiresAt: exp, User: *user}, nil
}

func invalidRole(role domain.UserRole) error {
	return apperrors.NewValidationError("invalid role", map[string]any{
		"role":    string(role),
		"allowed": []domain.UserRole{domain.UserRoleRequester, domain.UserRoleAgent, domain.UserRoleAdmin},
	})
}
