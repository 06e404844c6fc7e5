// Package materials manages the repair materials catalog.
package materials

import "time"

// Material is a catalog entry priced per unit. Proposal submission snapshots
// the price onto the material line, so later catalog edits never reprice
// historical proposals.
type Material struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	UnitPrice float64   `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
