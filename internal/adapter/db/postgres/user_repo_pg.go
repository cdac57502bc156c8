package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "user-item-service/internal/domain/user"
	pkgerrors "user-item-service/pkg/errors"
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"` // Unique identifier with auto-increment
	Email          string    `gorm:"not null;uniqueIndex"`     // User's unique email address
	HashedPassword string    `gorm:"not null"`                 // bcrypt hash of the user's password
	FullName       *string   // Optional display name
	IsActive       bool      `gorm:"not null"`
	IsSuperuser    bool      `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// UserRepoPG implements the user repository interface using GORM.
type UserRepoPG struct {
	crudBase[UserSchema]
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{crudBase[UserSchema]{db: db, log: log}}
}

// Create inserts a new user into the database.
func (r *UserRepoPG) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := userFromDomain(u)
	if err := r.create(ctx, model); err != nil {
		if isDuplicateKey(err) {
			r.log.Warn("duplicate email on create", zap.String("email", u.Email))
			return nil, pkgerrors.NewAlreadyExistsError("user", "The user with this email already exists in the system.")
		}
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	r.log.Info("user created in db", zap.Int64("id", model.ID))
	return userToDomain(model), nil
}

// GetByID retrieves a user by their unique ID. Returns (nil, nil) when the
// user does not exist.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	model, err := r.get(ctx, id)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to get user", err)
	}
	if model == nil {
		return nil, nil
	}
	return userToDomain(model), nil
}

// GetByEmail retrieves a user by their email address. Returns (nil, nil)
// when no user has that email.
func (r *UserRepoPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.String("email", email), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get user by email", err)
	}
	return userToDomain(&model), nil
}

// Update applies a partial update to an existing user. Only the fields set
// in the patch are written; the update timestamp is always refreshed.
func (r *UserRepoPG) Update(ctx context.Context, id int64, patch domain.Patch) (*domain.User, error) {
	fields := make(map[string]any)
	if patch.Email != nil {
		fields["email"] = *patch.Email
	}
	if patch.HashedPassword != nil {
		fields["hashed_password"] = *patch.HashedPassword
	}
	if patch.FullName != nil {
		fields["full_name"] = nullableString(*patch.FullName)
	}
	if patch.IsActive != nil {
		fields["is_active"] = *patch.IsActive
	}
	if patch.IsSuperuser != nil {
		fields["is_superuser"] = *patch.IsSuperuser
	}

	model, err := r.updateFields(ctx, id, fields)
	if err != nil {
		var notFound *pkgerrors.NotFoundError
		if errors.As(err, &notFound) {
			return nil, pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
		}
		if isDuplicateKey(err) {
			r.log.Warn("duplicate email on update", zap.Int64("id", id))
			return nil, pkgerrors.NewAlreadyExistsError("user", "The user with this email already exists in the system.")
		}
		return nil, pkgerrors.NewInternalError("failed to update user", err)
	}

	r.log.Info("user updated in db", zap.Int64("id", id))
	return userToDomain(model), nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) error {
	if err := r.remove(ctx, id); err != nil {
		var notFound *pkgerrors.NotFoundError
		if errors.As(err, &notFound) {
			return pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
		}
		return pkgerrors.NewInternalError("failed to delete user", err)
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// List retrieves users ordered by primary key with offset/limit pagination.
func (r *UserRepoPG) List(ctx context.Context, skip, limit int) ([]domain.User, error) {
	models, err := r.getMulti(ctx, skip, limit)
	if err != nil {
		var invalid *pkgerrors.ValidationError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]domain.User, len(models))
	for i := range models {
		users[i] = *userToDomain(&models[i])
	}
	return users, nil
}

func userFromDomain(u *domain.User) *UserSchema {
	return &UserSchema{
		ID:             u.ID,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		FullName:       nullableString(u.FullName),
		IsActive:       u.IsActive,
		IsSuperuser:    u.IsSuperuser,
	}
}

func userToDomain(m *UserSchema) *domain.User {
	u := &domain.User{
		ID:             m.ID,
		Email:          m.Email,
		HashedPassword: m.HashedPassword,
		IsActive:       m.IsActive,
		IsSuperuser:    m.IsSuperuser,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.FullName != nil {
		u.FullName = *m.FullName
	}
	return u
}

// nullableString maps the empty string to NULL so optional columns stay
// unset rather than holding empty values.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
