package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID             int64     // ID is the unique identifier for the user
	Email          string    // Email is the unique email address of the user
	HashedPassword string    // HashedPassword is the bcrypt hash of the user's password
	FullName       string    // FullName is the display name of the user (optional)
	IsActive       bool      // IsActive marks whether the user may act in the system
	IsSuperuser    bool      // IsSuperuser marks privileged users
	CreatedAt      time.Time // CreatedAt is assigned by the store on insert
	UpdatedAt      time.Time // UpdatedAt is refreshed by the store on update
}

// Patch describes a partial update of a user. Nil fields are left untouched,
// so an all-nil patch only refreshes the update timestamp.
type Patch struct {
	Email          *string
	HashedPassword *string
	FullName       *string
	IsActive       *bool
	IsSuperuser    *bool
}
