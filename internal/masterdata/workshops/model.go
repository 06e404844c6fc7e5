// Package workshops manages the repair workshop registry.
package workshops

import "time"

// Workshop is a repair facility that orders are scheduled into. Capacity is
// advisory metadata for planners; scheduling does not enforce it.
type Workshop struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
