package repair

import (
	"fmt"

	"github.com/drydock-works/drydock/internal/platform/httpx"
)

// Workflow errors. All wrap the httpx sentinels so handlers map them to the
// right problem responses.
var (
	ErrAlreadyClaimed     = fmt.Errorf("%w: order already claimed by another inspector", httpx.ErrConflict)
	ErrInvalidTransition  = fmt.Errorf("%w: status transition not allowed", httpx.ErrConflict)
	ErrNotOrderOwner      = fmt.Errorf("%w: order belongs to another customer", httpx.ErrForbidden)
	ErrNotOwningInspector = fmt.Errorf("%w: order is claimed by another inspector", httpx.ErrForbidden)
	ErrEmptyPlan          = fmt.Errorf("%w: repair plan text is required", httpx.ErrValidation)
	ErrPlanUnchanged      = fmt.Errorf("%w: resubmitted plan must differ from the rejected one", httpx.ErrValidation)
	ErrEmptyReason        = fmt.Errorf("%w: adjustment reason is required", httpx.ErrValidation)
	ErrIncompleteSchedule = fmt.Errorf("%w: both start and end dates are required", httpx.ErrValidation)
	ErrScheduleOrder      = fmt.Errorf("%w: start date must not be after end date", httpx.ErrValidation)
)
