// Package ships manages the vessel registry. Every repair order is raised
// against a registered ship owned by a customer account.
package ships

import "time"

// Ship is a vessel registered by a customer.
type Ship struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	RegistrationNo string    `json:"registration_no"`
	OwnerUserID    int64     `json:"owner_user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
