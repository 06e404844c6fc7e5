// Package repair implements the repair order workflow: creation, inspection
// claim, proposal cycles, scheduling, completion and cancellation.
package repair

import "time"

// AdjustmentRequest is the customer's recorded reason for rejecting a
// proposal and requesting another cycle.
type AdjustmentRequest struct {
	Text       string    `json:"text"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	At         time.Time `json:"at"`
}

// RepairOrder is a single ship repair request tracked from creation through
// invoicing. Cost fields are nil until a proposal has been submitted; once
// set they are the authoritative snapshot and are never silently recomputed.
type RepairOrder struct {
	ID            int64   `json:"id"`
	DocNumber     string  `json:"doc_number"`
	ShipID        int64   `json:"ship_id"`
	WorkshopID    int64   `json:"workshop_id"`
	CustomerID    int64   `json:"customer_id"`
	Status        Status  `json:"status"`
	StatusLabel   string  `json:"status_label"`
	Description   string  `json:"description"`
	RepairPlan    string  `json:"repair_plan"`
	InspectorID   *int64  `json:"inspector_id,omitempty"`
	InspectorName string  `json:"inspector_name,omitempty"`

	MaterialsCost *float64 `json:"materials_cost,omitempty"`
	LaborCost     *float64 `json:"labor_cost,omitempty"`
	TotalCost     *float64 `json:"total_cost,omitempty"`

	Adjustment *AdjustmentRequest `json:"adjustment,omitempty"`

	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaterialLine is an itemized material on a proposal. UnitPrice is frozen
// from the catalog at submission time so later catalog edits never reprice
// the proposal.
type MaterialLine struct {
	ID            int64   `json:"id"`
	RepairOrderID int64   `json:"repair_order_id"`
	MaterialID    int64   `json:"material_id"`
	MaterialName  string  `json:"material_name"`
	Unit          string  `json:"unit"`
	UnitPrice     float64 `json:"unit_price"`
	Quantity      float64 `json:"quantity"`
}

// Subtotal is quantity times the frozen unit price.
func (l MaterialLine) Subtotal() float64 {
	return l.Quantity * l.UnitPrice
}

// LaborLine is an itemized labor entry. DailyRate is persisted per line at
// submission time, falling back to the configured default when the employee
// record carries no rate.
type LaborLine struct {
	ID            int64   `json:"id"`
	RepairOrderID int64   `json:"repair_order_id"`
	EmployeeID    int64   `json:"employee_id"`
	Description   string  `json:"description"`
	Days          float64 `json:"days"`
	DailyRate     float64 `json:"daily_rate"`
}

// Subtotal is days times the persisted daily rate.
func (l LaborLine) Subtotal() float64 {
	return l.Days * l.DailyRate
}

// Actor identifies who performs a workflow action.
type Actor struct {
	ID   int64
	Name string
	Role string
}
