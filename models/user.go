package models

import "time"

// Role is the authorization level of an account.
type Role string

const (
	// RoleUser is a regular document owner.
	RoleUser Role = "user"

	// RoleAdmin may read and manage every user's data.
	RoleAdmin Role = "admin"
)

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	// UserActive accounts may log in and use the API.
	UserActive UserStatus = "active"

	// UserLocked accounts are kept but rejected at login and by the auth middleware.
	UserLocked UserStatus = "locked"

	// UserDeleted marks an account that is no longer usable.
	UserDeleted UserStatus = "deleted"
)

// User represents an account entity used for authentication and authorization.
// It owns zero or more documents and at most one current-profile pointer.
type User struct {
	// UserID is the internal unique identifier of the user.
	UserID int64 `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the unique login identifier, stored trimmed and lower-cased.
	Email string `json:"email"`

	// Password carries the plain-text password on register/login requests only.
	// It is never persisted and never serialized in responses.
	Password string `json:"password,omitempty"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-"`

	// Role is either RoleUser or RoleAdmin.
	Role Role `json:"role"`

	// Status is the account lifecycle state.
	Status UserStatus `json:"status"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at"`

	// LastActiveAt is refreshed on every authenticated request.
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
