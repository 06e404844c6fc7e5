package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drydock-works/drydock/internal/platform/db"
	"github.com/drydock-works/drydock/internal/platform/httpx"
	"github.com/drydock-works/drydock/internal/repair"
)

// Repository defines persistence for the ledger.
type Repository interface {
	CreateInvoice(ctx context.Context, orderID int64, number string, createdBy int64) (Invoice, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	InvoiceByOrder(ctx context.Context, orderID int64) (Invoice, error)
	ListInvoices(ctx context.Context, filters ListFilters) ([]Invoice, int, error)
	InvoiceLines(ctx context.Context, invoiceID int64) ([]InvoiceMaterialLine, []InvoiceLaborLine, error)
	ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error)
	RecordPayment(ctx context.Context, invoiceID int64, amount float64, method PaymentMethod, note string, recordedBy int64) (Invoice, Payment, error)
	OutstandingInvoices(ctx context.Context) ([]OutstandingInvoice, error)
	OverdueInvoices(ctx context.Context, cutoff time.Time) ([]OverdueInvoice, error)
}

// ListFilters narrows invoice listings.
type ListFilters struct {
	Page          int
	Limit         int
	PaymentStatus PaymentStatus
	OrderID       int64
}

// OutstandingInvoice carries what the aging report needs.
type OutstandingInvoice struct {
	Invoice   Invoice
	DocNumber string
}

// OverdueInvoice carries what the reminder job needs.
type OverdueInvoice struct {
	Invoice       Invoice
	DocNumber     string
	CustomerID    int64
	CustomerEmail string
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, number, repair_order_id, total_amount, remaining_amount, payment_status, created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.RepairOrderID, &inv.TotalAmount, &inv.RemainingAmount,
		&inv.PaymentStatus, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

// CreateInvoice freezes the order's lines and flips its status inside one
// transaction. The unique index on repair_order_id is the real duplicate
// guard; the pre-check only produces a friendlier error for the common case.
func (r *repository) CreateInvoice(ctx context.Context, orderID int64, number string, createdBy int64) (Invoice, error) {
	var inv Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			status        string
			materialsCost *float64
			laborCost     *float64
			totalCost     *float64
		)
		err := tx.QueryRow(ctx, `
			SELECT status, materials_cost, labor_cost, total_cost FROM repair_orders WHERE id = $1 FOR UPDATE
		`, orderID).Scan(&status, &materialsCost, &laborCost, &totalCost)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, orderID)
			}
			return err
		}
		if repair.Status(status) != repair.StatusCompleted {
			return ErrOrderNotCompleted
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE repair_order_id = $1)`, orderID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrDuplicateInvoice
		}

		total := 0.0
		if totalCost != nil {
			total = *totalCost
		} else {
			// Legacy rows without a snapshot: recompute from the lines.
			if err := tx.QueryRow(ctx, `
				SELECT COALESCE((SELECT SUM(quantity * unit_price) FROM material_lines WHERE repair_order_id = $1), 0)
				     + COALESCE((SELECT SUM(days * daily_rate) FROM labor_lines WHERE repair_order_id = $1), 0)
			`, orderID).Scan(&total); err != nil {
				return err
			}
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO invoices (number, repair_order_id, total_amount, remaining_amount, payment_status, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $3, $4, $5, NOW(), NOW())
			RETURNING `+invoiceColumns+`
		`, number, orderID, total, string(PaymentStatusUnpaid), createdBy).
			Scan(&inv.ID, &inv.Number, &inv.RepairOrderID, &inv.TotalAmount, &inv.RemainingAmount,
				&inv.PaymentStatus, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return ErrDuplicateInvoice
			}
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO invoice_material_lines (invoice_id, material_name, unit, unit_price, quantity)
			SELECT $1, material_name, unit, unit_price, quantity FROM material_lines WHERE repair_order_id = $2
		`, inv.ID, orderID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO invoice_labor_lines (invoice_id, description, days, daily_rate)
			SELECT $1, description, days, daily_rate FROM labor_lines WHERE repair_order_id = $2
		`, inv.ID, orderID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE repair_orders SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3
		`, orderID, string(repair.StatusInvoiced), string(repair.StatusCompleted))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrOrderNotCompleted
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, id)
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *repository) InvoiceByOrder(ctx context.Context, orderID int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE repair_order_id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, fmt.Errorf("%w: no invoice for order %d", httpx.ErrNotFound, orderID)
		}
		return Invoice{}, err
	}
	return inv, nil
}

func (r *repository) ListInvoices(ctx context.Context, filters ListFilters) ([]Invoice, int, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM invoices WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.PaymentStatus != "" {
		argCount++
		clause := ` AND payment_status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(filters.PaymentStatus))
	}
	if filters.OrderID > 0 {
		argCount++
		clause := ` AND repair_order_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, filters.OrderID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (r *repository) InvoiceLines(ctx context.Context, invoiceID int64) ([]InvoiceMaterialLine, []InvoiceLaborLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, material_name, unit, unit_price, quantity
		FROM invoice_material_lines WHERE invoice_id = $1 ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var materials []InvoiceMaterialLine
	for rows.Next() {
		var l InvoiceMaterialLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.MaterialName, &l.Unit, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, nil, err
		}
		materials = append(materials, l)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	laborRows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, description, days, daily_rate
		FROM invoice_labor_lines WHERE invoice_id = $1 ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	defer laborRows.Close()

	var labor []InvoiceLaborLine
	for laborRows.Next() {
		var l InvoiceLaborLine
		if err := laborRows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Days, &l.DailyRate); err != nil {
			return nil, nil, err
		}
		labor = append(labor, l)
	}
	return materials, labor, laborRows.Err()
}

func (r *repository) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, amount, method, note, paid_at, recorded_by, created_at
		FROM payments WHERE invoice_id = $1 ORDER BY paid_at, id
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Note, &p.PaidAt, &p.RecordedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecordPayment locks the invoice row, applies the ledger rule and appends
// the payment in one transaction. A rejected payment leaves nothing behind.
func (r *repository) RecordPayment(ctx context.Context, invoiceID int64, amount float64, method PaymentMethod, note string, recordedBy int64) (Invoice, Payment, error) {
	var (
		inv Invoice
		pay Payment
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, invoiceID)
		var err error
		inv, err = scanInvoice(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, invoiceID)
			}
			return err
		}

		if err := inv.ApplyPayment(amount); err != nil {
			return err
		}

		now := time.Now()
		err = tx.QueryRow(ctx, `
			INSERT INTO payments (invoice_id, amount, method, note, paid_at, recorded_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $5)
			RETURNING id, invoice_id, amount, method, note, paid_at, recorded_by, created_at
		`, invoiceID, amount, string(method), note, now, recordedBy).
			Scan(&pay.ID, &pay.InvoiceID, &pay.Amount, &pay.Method, &pay.Note, &pay.PaidAt, &pay.RecordedBy, &pay.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE invoices SET remaining_amount = $2, payment_status = $3, updated_at = NOW() WHERE id = $1
		`, invoiceID, inv.RemainingAmount, string(inv.PaymentStatus))
		return err
	})
	if err != nil {
		return Invoice{}, Payment{}, err
	}
	return inv, pay, nil
}

func (r *repository) OutstandingInvoices(ctx context.Context) ([]OutstandingInvoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.number, i.repair_order_id, i.total_amount, i.remaining_amount, i.payment_status,
		       i.created_by, i.created_at, i.updated_at, o.doc_number
		FROM invoices i
		JOIN repair_orders o ON o.id = i.repair_order_id
		WHERE i.payment_status <> $1
		ORDER BY i.created_at
	`, string(PaymentStatusPaid))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutstandingInvoice
	for rows.Next() {
		var item OutstandingInvoice
		if err := rows.Scan(&item.Invoice.ID, &item.Invoice.Number, &item.Invoice.RepairOrderID,
			&item.Invoice.TotalAmount, &item.Invoice.RemainingAmount, &item.Invoice.PaymentStatus,
			&item.Invoice.CreatedBy, &item.Invoice.CreatedAt, &item.Invoice.UpdatedAt, &item.DocNumber); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *repository) OverdueInvoices(ctx context.Context, cutoff time.Time) ([]OverdueInvoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.number, i.repair_order_id, i.total_amount, i.remaining_amount, i.payment_status,
		       i.created_by, i.created_at, i.updated_at, o.doc_number, o.customer_id, u.email
		FROM invoices i
		JOIN repair_orders o ON o.id = i.repair_order_id
		JOIN users u ON u.id = o.customer_id
		WHERE i.payment_status <> $1 AND i.created_at < $2
		ORDER BY i.created_at
	`, string(PaymentStatusPaid), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OverdueInvoice
	for rows.Next() {
		var item OverdueInvoice
		if err := rows.Scan(&item.Invoice.ID, &item.Invoice.Number, &item.Invoice.RepairOrderID,
			&item.Invoice.TotalAmount, &item.Invoice.RemainingAmount, &item.Invoice.PaymentStatus,
			&item.Invoice.CreatedBy, &item.Invoice.CreatedAt, &item.Invoice.UpdatedAt,
			&item.DocNumber, &item.CustomerID, &item.CustomerEmail); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
