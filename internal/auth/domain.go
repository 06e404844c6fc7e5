package auth

import "time"

// Role names a business role granted to a user account.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleInspector  Role = "inspector"
	RoleWorkshop   Role = "workshop"
	RoleAccountant Role = "accountant"
	RoleAdmin      Role = "admin"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
