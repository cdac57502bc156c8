package user

// CreateUserRequest represents the request payload for creating a new user.
// Email and password are mandatory; the active and superuser flags default
// to true and false when unset.
type CreateUserRequest struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required"`
	FullName    string `validate:"omitempty,max=100"`
	IsActive    *bool
	IsSuperuser *bool
}

// UpdateUserRequest represents the request payload for updating an existing
// user. All fields are optional; nil fields are left untouched, so an empty
// request is a valid no-op update.
type UpdateUserRequest struct {
	ID          int64   `validate:"required"`
	Email       *string `validate:"omitempty,email"`
	Password    *string `validate:"omitempty,min=1"`
	FullName    *string `validate:"omitempty,max=100"`
	IsActive    *bool
	IsSuperuser *bool
}

// ListUsersRequest represents the request payload for listing users with
// offset/limit pagination.
type ListUsersRequest struct {
	Skip  int
	Limit int
}

// User represents the user output shape returned by the service. The hashed
// credential is deliberately absent.
type User struct {
	ID          int64
	Email       string
	FullName    string
	IsActive    bool
	IsSuperuser bool
}
