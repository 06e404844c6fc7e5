package workshops

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

// Repository defines persistence for the workshop registry.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Workshop, int, error)
	Get(ctx context.Context, id int64) (Workshop, error)
	Create(ctx context.Context, ws Workshop) (Workshop, error)
	Update(ctx context.Context, id int64, ws Workshop) error
	Delete(ctx context.Context, id int64) error
	CountEmployees(ctx context.Context, id int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var sortColumns = map[string]string{
	"name":     "name",
	"capacity": "capacity",
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Workshop, int, error) {
	query := `SELECT id, name, address, capacity, created_at, updated_at FROM workshops WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM workshops WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR address ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + shared.SortOrder(filters.SortBy, filters.SortDir, "name", sortColumns)

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

	var out []Workshop
	for rows.Next() {
		var ws Workshop
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Address, &ws.Capacity, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, ws)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Workshop, error) {
	var ws Workshop
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, address, capacity, created_at, updated_at FROM workshops WHERE id = $1`, id,
	).Scan(&ws.ID, &ws.Name, &ws.Address, &ws.Capacity, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workshop{}, fmt.Errorf("%w: workshop %d", httpx.ErrNotFound, id)
		}
		return Workshop{}, err
	}
	return ws, nil
}

func (r *repository) Create(ctx context.Context, ws Workshop) (Workshop, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO workshops (name, address, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, ws.Name, ws.Address, ws.Capacity).Scan(&ws.ID, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return Workshop{}, err
	}
	return ws, nil
}

func (r *repository) Update(ctx context.Context, id int64, ws Workshop) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE workshops SET name = $1, address = $2, capacity = $3, updated_at = NOW() WHERE id = $4
	`, ws.Name, ws.Address, ws.Capacity, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: workshop %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workshops WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: workshop %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) CountEmployees(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE workshop_id = $1`, id).Scan(&count)
	return count, err
}
