package user

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/go-playground/validator/v10"

	domain "user-item-service/internal/domain/user"
	pkgerrors "user-item-service/pkg/errors"
	"user-item-service/pkg/security"
)

// Service implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Service struct {
	repo     Repository
	items    ItemRepository
	log      *zap.Logger
	validate *validator.Validate
}

var _ Usecase = (*Service)(nil)

// New creates a new Service with the provided repositories and logger.
func New(repo Repository, items ItemRepository, log *zap.Logger) *Service {
	return &Service{repo: repo, items: items, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a typed
// validation error with a human-readable, field-level message.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.NewValidationError("", err.Error())
	}

	var messages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", e.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return pkgerrors.NewValidationError("", strings.Join(messages, ", "))
}

// CreateUser creates a new user after validating the request and checking
// email uniqueness. The plaintext password is bcrypt-hashed before it
// reaches the store.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	s.log.Info("creating user", zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		s.log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil {
		s.log.Warn("email already exists", zap.String("email", in.Email))
		return nil, pkgerrors.NewAlreadyExistsError("user", "The user with this email already exists in the system.")
	}

	hashed, err := security.HashPassword(in.Password)
	if err != nil {
		s.log.Error("failed to hash password", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to hash password", err)
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	isSuperuser := false
	if in.IsSuperuser != nil {
		isSuperuser = *in.IsSuperuser
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Email:          in.Email,
		HashedPassword: hashed,
		FullName:       in.FullName,
		IsActive:       isActive,
		IsSuperuser:    isSuperuser,
	})
	if err != nil {
		s.log.Error("failed to create user", zap.Error(err))
		return nil, err
	}

	return toDTO(created), nil
}

// GetUser retrieves a user by ID. Any id without a matching row, including
// zero and negative ids, yields a NotFoundError.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	if u == nil {
		return nil, pkgerrors.NewNotFoundError("user", "The user with this id does not exist in the system")
	}

	return toDTO(u), nil
}

// UpdateUser applies a partial update to an existing user. Absent fields
// retain their prior value; a request with no fields set only refreshes the
// update timestamp.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	s.log.Info("updating user", zap.Int64("id", in.ID))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	existing, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		s.log.Error("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}
	if existing == nil {
		return nil, pkgerrors.NewNotFoundError("user", "The user with this id does not exist in the system")
	}

	if in.Email != nil && *in.Email != existing.Email {
		other, err := s.repo.GetByEmail(ctx, *in.Email)
		if err != nil {
			s.log.Error("failed to check existing email", zap.String("email", *in.Email), zap.Error(err))
			return nil, pkgerrors.NewInternalError("failed to validate email uniqueness", err)
		}
		if other != nil {
			s.log.Warn("email already exists", zap.String("email", *in.Email), zap.Int64("existing_id", other.ID))
			return nil, pkgerrors.NewAlreadyExistsError("user", "The user with this email already exists in the system.")
		}
	}

	patch := domain.Patch{
		Email:       in.Email,
		FullName:    in.FullName,
		IsActive:    in.IsActive,
		IsSuperuser: in.IsSuperuser,
	}
	if in.Password != nil {
		hashed, err := security.HashPassword(*in.Password)
		if err != nil {
			s.log.Error("failed to hash password", zap.Error(err))
			return nil, pkgerrors.NewInternalError("failed to hash password", err)
		}
		patch.HashedPassword = &hashed
	}

	updated, err := s.repo.Update(ctx, in.ID, patch)
	if err != nil {
		s.log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, err
	}

	return toDTO(updated), nil
}

// DeleteUser removes a user. Deletion is restricted while items still
// reference the user, so referential integrity is never broken.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	s.log.Info("deleting user", zap.Int64("id", id))

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return err
	}
	if existing == nil {
		return pkgerrors.NewNotFoundError("user", "The user with this id does not exist in the system")
	}

	if s.items != nil {
		count, err := s.items.CountByOwner(ctx, id)
		if err != nil {
			s.log.Error("failed to count items for user", zap.Int64("id", id), zap.Error(err))
			return err
		}
		if count > 0 {
			s.log.Warn("user still owns items", zap.Int64("id", id), zap.Int64("items", count))
			return pkgerrors.NewConflictError("user", "The user still owns items and cannot be deleted")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error("failed to delete user", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ListUsers retrieves a page of users with offset/limit pagination.
func (s *Service) ListUsers(ctx context.Context, in ListUsersRequest) ([]User, error) {
	if in.Skip < 0 || in.Limit < 0 {
		s.log.Warn("list users validation failed", zap.Int("skip", in.Skip), zap.Int("limit", in.Limit))
		return nil, pkgerrors.NewValidationError("pagination", "skip and limit must not be negative")
	}

	s.log.Info("listing users", zap.Int("skip", in.Skip), zap.Int("limit", in.Limit))

	domainUsers, err := s.repo.List(ctx, in.Skip, in.Limit)
	if err != nil {
		s.log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *toDTO(&domainUsers[i])
	}
	return users, nil
}

// AuthenticateUser verifies the supplied plaintext password against the
// stored credential. An unknown email and a wrong password both return
// (nil, nil); callers cannot distinguish the two cases.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.log.Error("failed to look up user for authentication", zap.Error(err))
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	if !security.VerifyPassword(u.HashedPassword, password) {
		return nil, nil
	}
	return toDTO(u), nil
}

func toDTO(u *domain.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
	}
}
