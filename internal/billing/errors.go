package billing

import (
	"fmt"

	"github.com/drydock-works/drydock/internal/platform/httpx"
)

// Ledger errors, wrapping the httpx sentinels for problem mapping.
var (
	ErrDuplicateInvoice  = fmt.Errorf("%w: order already has an invoice", httpx.ErrConflict)
	ErrOrderNotCompleted = fmt.Errorf("%w: order is not completed", httpx.ErrConflict)
	ErrInvalidAmount     = fmt.Errorf("%w: payment amount must be positive", httpx.ErrValidation)
	ErrOverpayment       = fmt.Errorf("%w: payment exceeds the remaining balance", httpx.ErrValidation)
	ErrInvalidMethod     = fmt.Errorf("%w: unsupported payment method", httpx.ErrValidation)
)
