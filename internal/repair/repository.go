package repair

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
)

// Repository defines persistence for repair orders and their lines.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]RepairOrder, int, error)
	Get(ctx context.Context, id int64) (RepairOrder, error)
	Lines(ctx context.Context, orderID int64) ([]MaterialLine, []LaborLine, error)
	Create(ctx context.Context, o RepairOrder) (RepairOrder, error)
	Claim(ctx context.Context, orderID, inspectorID int64, inspectorName string) error
	SubmitProposal(ctx context.Context, orderID int64, from Status, plan string, materials []MaterialLine, labor []LaborLine, snap CostSnapshot) error
	SetStatus(ctx context.Context, orderID int64, from, to Status) error
	RequestReproposal(ctx context.Context, orderID int64, adj AdjustmentRequest) error
	Schedule(ctx context.Context, orderID int64, start, end time.Time) error
	Complete(ctx context.Context, orderID int64, at time.Time) error
	CancelDelete(ctx context.Context, orderID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orderColumns = `id, doc_number, ship_id, workshop_id, customer_id, status, description, repair_plan,
	inspector_id, inspector_name, materials_cost, labor_cost, total_cost,
	adjustment_text, adjustment_author_id, adjustment_author_name, adjustment_at,
	scheduled_start, scheduled_end, completed_at, created_at, updated_at`

func scanOrder(row pgx.Row) (RepairOrder, error) {
	var (
		o             RepairOrder
		inspectorName *string
		adjText       *string
		adjAuthorID   *int64
		adjAuthorName *string
		adjAt         *time.Time
	)
	err := row.Scan(
		&o.ID, &o.DocNumber, &o.ShipID, &o.WorkshopID, &o.CustomerID, &o.Status, &o.Description, &o.RepairPlan,
		&o.InspectorID, &inspectorName, &o.MaterialsCost, &o.LaborCost, &o.TotalCost,
		&adjText, &adjAuthorID, &adjAuthorName, &adjAt,
		&o.ScheduledStart, &o.ScheduledEnd, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return RepairOrder{}, err
	}
	if inspectorName != nil {
		o.InspectorName = *inspectorName
	}
	if adjText != nil {
		o.Adjustment = &AdjustmentRequest{Text: *adjText}
		if adjAuthorID != nil {
			o.Adjustment.AuthorID = *adjAuthorID
		}
		if adjAuthorName != nil {
			o.Adjustment.AuthorName = *adjAuthorName
		}
		if adjAt != nil {
			o.Adjustment.At = *adjAt
		}
	}
	o.StatusLabel = o.Status.Label()
	return o, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]RepairOrder, int, error) {
	query := `SELECT ` + orderColumns + ` FROM repair_orders WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM repair_orders WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	appendClause := func(clause string, value interface{}) {
		argCount++
		full := clause + `$` + strconv.Itoa(argCount)
		query += full
		countQuery += full
		args = append(args, value)
	}

	if filters.Status != "" {
		appendClause(` AND status = `, string(filters.Status))
	}
	if filters.CustomerID > 0 {
		appendClause(` AND customer_id = `, filters.CustomerID)
	}
	if filters.InspectorID > 0 {
		appendClause(` AND inspector_id = `, filters.InspectorID)
	}
	if filters.WorkshopID > 0 {
		appendClause(` AND workshop_id = `, filters.WorkshopID)
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
		args = append(args, filters.Offset())
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []RepairOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (RepairOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM repair_orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RepairOrder{}, fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, id)
		}
		return RepairOrder{}, err
	}
	return o, nil
}

func (r *repository) Lines(ctx context.Context, orderID int64) ([]MaterialLine, []LaborLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, repair_order_id, material_id, material_name, unit, unit_price, quantity
		FROM material_lines WHERE repair_order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var materials []MaterialLine
	for rows.Next() {
		var l MaterialLine
		if err := rows.Scan(&l.ID, &l.RepairOrderID, &l.MaterialID, &l.MaterialName, &l.Unit, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, nil, err
		}
		materials = append(materials, l)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	laborRows, err := r.pool.Query(ctx, `
		SELECT id, repair_order_id, employee_id, description, days, daily_rate
		FROM labor_lines WHERE repair_order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, nil, err
	}
	defer laborRows.Close()

	var labor []LaborLine
	for laborRows.Next() {
		var l LaborLine
		if err := laborRows.Scan(&l.ID, &l.RepairOrderID, &l.EmployeeID, &l.Description, &l.Days, &l.DailyRate); err != nil {
			return nil, nil, err
		}
		labor = append(labor, l)
	}
	return materials, labor, laborRows.Err()
}

func (r *repository) Create(ctx context.Context, o RepairOrder) (RepairOrder, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO repair_orders (doc_number, ship_id, workshop_id, customer_id, status, description, repair_plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, '', NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, o.DocNumber, o.ShipID, o.WorkshopID, o.CustomerID, string(o.Status), o.Description).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return RepairOrder{}, err
	}
	o.StatusLabel = o.Status.Label()
	return o, nil
}

// Claim assigns the inspector with a conditional write. The WHERE clause is
// the guard: a concurrent claim that committed first leaves zero rows for
// this one, which surfaces as ErrAlreadyClaimed.
func (r *repository) Claim(ctx context.Context, orderID, inspectorID int64, inspectorName string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE repair_orders
		SET inspector_id = $2, inspector_name = $3, status = $4, updated_at = NOW()
		WHERE id = $1 AND inspector_id IS NULL AND status = $5
	`, orderID, inspectorID, inspectorName, string(StatusUnderInspection), string(StatusAwaitingInspection))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.Get(ctx, orderID); err != nil {
		return err
	}
	return ErrAlreadyClaimed
}

// SubmitProposal replaces the child line sets and refreshes the cost snapshot
// in one transaction, so an interrupted resubmission can never leave a torn
// mix of old and new lines.
func (r *repository) SubmitProposal(ctx context.Context, orderID int64, from Status, plan string, materials []MaterialLine, labor []LaborLine, snap CostSnapshot) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE repair_orders
			SET status = $3, repair_plan = $4, materials_cost = $5, labor_cost = $6, total_cost = $7, updated_at = NOW()
			WHERE id = $1 AND status = $2
		`, orderID, string(from), string(StatusProposalSubmitted), plan, snap.Materials, snap.Labor, snap.Total)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInvalidTransition
		}

		if _, err := tx.Exec(ctx, `DELETE FROM material_lines WHERE repair_order_id = $1`, orderID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM labor_lines WHERE repair_order_id = $1`, orderID); err != nil {
			return err
		}
		for _, l := range materials {
			if _, err := tx.Exec(ctx, `
				INSERT INTO material_lines (repair_order_id, material_id, material_name, unit, unit_price, quantity)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, orderID, l.MaterialID, l.MaterialName, l.Unit, l.UnitPrice, l.Quantity); err != nil {
				return err
			}
		}
		for _, l := range labor {
			if _, err := tx.Exec(ctx, `
				INSERT INTO labor_lines (repair_order_id, employee_id, description, days, daily_rate)
				VALUES ($1, $2, $3, $4, $5)
			`, orderID, l.EmployeeID, l.Description, l.Days, l.DailyRate); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetStatus performs a guarded status write. Zero rows affected means the
// order moved out of the expected state concurrently, or never existed.
func (r *repository) SetStatus(ctx context.Context, orderID int64, from, to Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE repair_orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2
	`, orderID, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.Get(ctx, orderID); err != nil {
		return err
	}
	return ErrInvalidTransition
}

func (r *repository) RequestReproposal(ctx context.Context, orderID int64, adj AdjustmentRequest) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE repair_orders
		SET status = $2, adjustment_text = $3, adjustment_author_id = $4, adjustment_author_name = $5, adjustment_at = $6, updated_at = NOW()
		WHERE id = $1 AND status = $7
	`, orderID, string(StatusReproposalRequested), adj.Text, adj.AuthorID, adj.AuthorName, adj.At, string(StatusProposalSubmitted))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.Get(ctx, orderID); err != nil {
		return err
	}
	return ErrInvalidTransition
}

func (r *repository) Schedule(ctx context.Context, orderID int64, start, end time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE repair_orders
		SET status = $2, scheduled_start = $3, scheduled_end = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`, orderID, string(StatusScheduled), start, end, string(StatusAcceptedPendingSchedule))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.Get(ctx, orderID); err != nil {
		return err
	}
	return ErrInvalidTransition
}

func (r *repository) Complete(ctx context.Context, orderID int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE repair_orders SET status = $2, completed_at = $3, updated_at = NOW() WHERE id = $1 AND status = $4
	`, orderID, string(StatusCompleted), at, string(StatusScheduled))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.Get(ctx, orderID); err != nil {
		return err
	}
	return ErrInvalidTransition
}

// CancelDelete removes the order and all child lines in one transaction so
// no line can ever reference a missing order.
func (r *repository) CancelDelete(ctx context.Context, orderID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM material_lines WHERE repair_order_id = $1`, orderID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM labor_lines WHERE repair_order_id = $1`, orderID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM repair_orders WHERE id = $1`, orderID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: repair order %d", httpx.ErrNotFound, orderID)
		}
		return nil
	})
}
