package core

import (
	"context"
	"time"
)

// Role gates which workflow steps a user may perform.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// User is a warehouse operator. WarehouseID is nil for admins, who are not
// bound to one warehouse.
type User struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	Role        Role      `json:"role"`
	WarehouseID *int      `json:"warehouse_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserService provides user lookup operations.
type UserService interface {
	// GetByID returns an active user by primary key.
	GetByID(ctx context.Context, userID int) (*User, error)

	// GetByUsername finds an active user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
