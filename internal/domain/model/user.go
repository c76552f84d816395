package model

import "time"

// Role distinguishes dispatchers from delivery partners.
type Role string

const (
	RoleManager  Role = "manager"
	RoleDelivery Role = "delivery"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleDelivery
}

// User represents a registered account of either role.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
}

// Ref returns the short projection used inside orders and events.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}

// UserRef is a resolved reference to a user.
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
