package item

import "time"

// Item represents an item entity. Every item is owned by exactly one user,
// referenced by OwnerID.
type Item struct {
	ID          int64
	Title       string
	Description string
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Patch describes a partial update of an item. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
}
