package employees

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drydock-works/drydock/internal/masterdata/shared"
	"github.com/drydock-works/drydock/internal/platform/httpx"
)

// Repository defines persistence for workshop staff.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, workshopID int64) ([]Employee, int, error)
	Get(ctx context.Context, id int64) (Employee, error)
	Create(ctx context.Context, e Employee) (Employee, error)
	Update(ctx context.Context, id int64, e Employee) error
	Delete(ctx context.Context, id int64) error
	CountLaborReferences(ctx context.Context, id int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var sortColumns = map[string]string{
	"full_name":  "full_name",
	"specialty":  "specialty",
	"daily_rate": "daily_rate",
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters, workshopID int64) ([]Employee, int, error) {
	query := `SELECT id, workshop_id, full_name, specialty, daily_rate, created_at, updated_at FROM employees WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM employees WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if workshopID > 0 {
		argCount++
		clause := ` AND workshop_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, workshopID)
	}
	if filters.Search != "" {
		argCount++
		clause := ` AND (full_name ILIKE $` + strconv.Itoa(argCount) + ` OR specialty ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + shared.SortOrder(filters.SortBy, filters.SortDir, "full_name", sortColumns)

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

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.WorkshopID, &e.FullName, &e.Specialty, &e.DailyRate, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Employee, error) {
	var e Employee
	err := r.pool.QueryRow(ctx,
		`SELECT id, workshop_id, full_name, specialty, daily_rate, created_at, updated_at FROM employees WHERE id = $1`, id,
	).Scan(&e.ID, &e.WorkshopID, &e.FullName, &e.Specialty, &e.DailyRate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, fmt.Errorf("%w: employee %d", httpx.ErrNotFound, id)
		}
		return Employee{}, err
	}
	return e, nil
}

func (r *repository) Create(ctx context.Context, e Employee) (Employee, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees (workshop_id, full_name, specialty, daily_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, e.WorkshopID, e.FullName, e.Specialty, e.DailyRate).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Employee{}, err
	}
	return e, nil
}

func (r *repository) Update(ctx context.Context, id int64, e Employee) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE employees SET workshop_id = $1, full_name = $2, specialty = $3, daily_rate = $4, updated_at = NOW()
		WHERE id = $5
	`, e.WorkshopID, e.FullName, e.Specialty, e.DailyRate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: employee %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: employee %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) CountLaborReferences(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM labor_lines WHERE employee_id = $1`, id).Scan(&count)
	return count, err
}
