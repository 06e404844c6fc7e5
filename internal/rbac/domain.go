// Package rbac resolves role-based permissions for request authorization.
package rbac

import "time"

// Role represents a business role grouping permissions. The five roles
// (customer, inspector, workshop, accountant, admin) are seeded rows; the
// grants they carry stay editable without redeploying.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability.
type Permission struct {
	ID          int64
	Name        string
	Description string
}
