package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/auth"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/errors"
	"github.com/chatterfix/backend/pkg/utils"
)

// UserService handles admin user management
type UserService struct {
	users *persistence.UserRepository
}

func NewUserService(users *persistence.UserRepository) *UserService {
	return &UserService{users: users}
}

// CreateUserRequest is the payload for creating a user
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Phone    string `json:"phone"`
}

// UpdateUserRequest is the payload for updating a user. Pointers distinguish
// "not sent" from zero values.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

// CreateUser registers a new user account
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if !auth.IsValidEmail(req.Email) {
		return nil, errors.NewValidationError("email", "Invalid email format")
	}
	if !utils.ContainsString(constants.ValidRoles, req.Role) {
		return nil, errors.NewValidationError("role", fmt.Sprintf("Role must be one of: %s", strings.Join(constants.ValidRoles, ", ")))
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, errors.NewValidationError("password", err.Error())
	}

	exists, err := s.users.CheckUserExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewConflictError("User", "email", req.Email)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       utils.GenerateID(),
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Phone:    req.Phone,
		IsActive: true,
	}
	if err := s.users.Insert(ctx, user, hash); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial update to a user account
func (s *UserService) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (*models.User, error) {
	existing, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.NewNotFoundError("User", userID)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[constants.FieldName] = *req.Name
	}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		if !auth.IsValidEmail(email) {
			return nil, errors.NewValidationError("email", "Invalid email format")
		}
		conflict, err := s.users.CheckEmailConflict(ctx, email, userID)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, errors.NewConflictError("User", "email", email)
		}
		updates[constants.FieldEmail] = email
	}
	if req.Role != nil {
		if !utils.ContainsString(constants.ValidRoles, *req.Role) {
			return nil, errors.NewValidationError("role", fmt.Sprintf("Role must be one of: %s", strings.Join(constants.ValidRoles, ", ")))
		}
		updates[constants.FieldRole] = *req.Role
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.IsActive != nil {
		updates[constants.FieldIsActive] = *req.IsActive
	}

	if err := s.users.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}

// DeleteUser removes a user account. The caller cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, userID, actorID string) error {
	if userID == actorID {
		return errors.NewValidationError("id", "Cannot delete your own account")
	}

	existing, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.NewNotFoundError("User", userID)
	}
	return s.users.Delete(ctx, userID)
}

// GetUsers lists all users
func (s *UserService) GetUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.FindAll(ctx)
}

// GetUser fetches a single user
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewNotFoundError("User", userID)
	}
	return user, nil
}
