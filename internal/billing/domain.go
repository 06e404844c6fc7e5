// Package billing implements the invoice and payment ledger: one frozen
// invoice per completed repair order, and append-only payments reducing its
// remaining balance.
package billing

import "time"

// PaymentStatus tracks how much of an invoice has been settled.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
)

// PaymentMethod is the closed set of accepted payment channels.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// ValidMethod reports whether m is an accepted payment method.
func ValidMethod(m PaymentMethod) bool {
	return m == MethodCash || m == MethodBankTransfer
}

// Invoice is a frozen snapshot of an order's agreed costs.
type Invoice struct {
	ID              int64         `json:"id"`
	Number          string        `json:"number"`
	RepairOrderID   int64         `json:"repair_order_id"`
	TotalAmount     float64       `json:"total_amount"`
	RemainingAmount float64       `json:"remaining_amount"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	CreatedBy       int64         `json:"created_by"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// balanceEpsilon absorbs float rounding when deciding whether an invoice is
// fully settled.
const balanceEpsilon = 1e-6

// ApplyPayment reduces the remaining balance and recomputes the payment
// status. It rejects non-positive amounts and overpayments without mutating
// the invoice. Both the transactional repository and tests share this rule.
func (i *Invoice) ApplyPayment(amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > i.RemainingAmount+balanceEpsilon {
		return ErrOverpayment
	}
	i.RemainingAmount -= amount
	if i.RemainingAmount < balanceEpsilon {
		i.RemainingAmount = 0
	}
	i.PaymentStatus = statusForBalance(i.RemainingAmount, i.TotalAmount)
	return nil
}

func statusForBalance(remaining, total float64) PaymentStatus {
	switch {
	case remaining == 0:
		return PaymentStatusPaid
	case remaining < total:
		return PaymentStatusPartiallyPaid
	default:
		return PaymentStatusUnpaid
	}
}

// Payment is one append-only ledger entry against an invoice.
type Payment struct {
	ID         int64         `json:"id"`
	InvoiceID  int64         `json:"invoice_id"`
	Amount     float64       `json:"amount"`
	Method     PaymentMethod `json:"method"`
	Note       string        `json:"note,omitempty"`
	PaidAt     time.Time     `json:"paid_at"`
	RecordedBy int64         `json:"recorded_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

// InvoiceMaterialLine is a material line frozen at invoice creation.
type InvoiceMaterialLine struct {
	ID           int64   `json:"id"`
	InvoiceID    int64   `json:"invoice_id"`
	MaterialName string  `json:"material_name"`
	Unit         string  `json:"unit"`
	UnitPrice    float64 `json:"unit_price"`
	Quantity     float64 `json:"quantity"`
}

// InvoiceLaborLine is a labor line frozen at invoice creation.
type InvoiceLaborLine struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"invoice_id"`
	Description string  `json:"description"`
	Days        float64 `json:"days"`
	DailyRate   float64 `json:"daily_rate"`
}

// InvoiceDetail is the invoice with its frozen lines and ledger history.
type InvoiceDetail struct {
	Invoice   Invoice               `json:"invoice"`
	Materials []InvoiceMaterialLine `json:"materials"`
	Labor     []InvoiceLaborLine    `json:"labor"`
	Payments  []Payment             `json:"payments"`
}
