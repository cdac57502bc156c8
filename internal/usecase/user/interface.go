package user

import (
	"context"

	domain "user-item-service/internal/domain/user"
)

// Usecase defines the interface for user business logic operations.
type Usecase interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, in ListUsersRequest) ([]User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*User, error)
}

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// to be used interchangeably.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)      // (nil, nil) when absent
	GetByEmail(ctx context.Context, email string) (*domain.User, error) // (nil, nil) when absent
	Update(ctx context.Context, id int64, patch domain.Patch) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, skip, limit int) ([]domain.User, error)
}

// ItemRepository is the slice of item data access the user usecase needs to
// enforce the delete-restrict policy.
type ItemRepository interface {
	CountByOwner(ctx context.Context, ownerID int64) (int64, error)
}
