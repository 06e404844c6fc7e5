// Package users manages user accounts, including the privileged
// administrator operations (password reset, account deletion).
package users

import "time"

// User represents a user account for management.
type User struct {
	ID        int64
	Email     string
	FullName  string
	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MinPasswordLength is the minimum accepted password length for the
// administrator password-reset operation.
const MinPasswordLength = 6
