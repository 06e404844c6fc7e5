package repair

import "time"

// CreateOrderInput is the customer's repair request payload.
type CreateOrderInput struct {
	ShipID      int64  `json:"ship_id" validate:"required,gt=0"`
	WorkshopID  int64  `json:"workshop_id" validate:"required,gt=0"`
	Description string `json:"description" validate:"required,max=4000"`
}

// MaterialLineInput references a catalog entry and a quantity. The price is
// resolved server-side from the catalog and frozen onto the line.
type MaterialLineInput struct {
	MaterialID int64   `json:"material_id" validate:"required,gt=0"`
	Quantity   float64 `json:"quantity" validate:"required,gt=0"`
}

// LaborLineInput references an employee and a duration in days.
type LaborLineInput struct {
	EmployeeID  int64   `json:"employee_id" validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=1000"`
	Days        float64 `json:"days" validate:"required,gt=0"`
}

// ProposalInput is the inspector's repair plan with itemized lines.
type ProposalInput struct {
	Plan      string              `json:"plan"`
	Materials []MaterialLineInput `json:"materials" validate:"dive"`
	Labor     []LaborLineInput    `json:"labor" validate:"dive"`
}

// DecisionInput is the customer's verdict on a submitted proposal. Reason is
// mandatory when requesting a reproposal.
type DecisionInput struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason"`
}

// ScheduleInput carries the workshop's date pair. Both must be present for
// the order to transition.
type ScheduleInput struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// OrderDetail is the full order view: the order row plus its current lines.
type OrderDetail struct {
	Order     RepairOrder    `json:"order"`
	Materials []MaterialLine `json:"materials"`
	Labor     []LaborLine    `json:"labor"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	Page        int
	Limit       int
	Status      Status
	CustomerID  int64
	InspectorID int64
	WorkshopID  int64
}

// Offset computes the row offset for the current page.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
