package models

import "time"

// User roles. Role is stored as plain text with a CHECK constraint.
const (
	RoleAdmin = "Admin"
	RoleStaff = "Staff"
)

// User represents a staff or admin account
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserStats holds aggregate user counts for the admin dashboard
type UserStats struct {
	Total  int `json:"total" db:"total"`
	Admins int `json:"admins" db:"admins"`
	Staff  int `json:"staff" db:"staff"`
}
