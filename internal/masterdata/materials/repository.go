package materials

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

// Repository defines persistence for the materials catalog.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Material, int, error)
	Get(ctx context.Context, id int64) (Material, error)
	Create(ctx context.Context, m Material) (Material, error)
	Update(ctx context.Context, id int64, m Material) error
	Delete(ctx context.Context, id int64) error
	CountLineReferences(ctx context.Context, id int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var sortColumns = map[string]string{
	"name":       "name",
	"unit_price": "unit_price",
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Material, int, error) {
	query := `SELECT id, name, unit, unit_price, created_at, updated_at FROM materials WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM materials WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND name ILIKE $` + strconv.Itoa(argCount)
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

	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.UnitPrice, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Material, error) {
	var m Material
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, unit, unit_price, created_at, updated_at FROM materials WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Unit, &m.UnitPrice, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Material{}, fmt.Errorf("%w: material %d", httpx.ErrNotFound, id)
		}
		return Material{}, err
	}
	return m, nil
}

func (r *repository) Create(ctx context.Context, m Material) (Material, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO materials (name, unit, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, m.Name, m.Unit, m.UnitPrice).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return Material{}, err
	}
	return m, nil
}

func (r *repository) Update(ctx context.Context, id int64, m Material) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE materials SET name = $1, unit = $2, unit_price = $3, updated_at = NOW() WHERE id = $4
	`, m.Name, m.Unit, m.UnitPrice, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: material %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: material %d", httpx.ErrNotFound, id)
	}
	return nil
}

// CountLineReferences reports how many material lines still reference the
// catalog entry.
func (r *repository) CountLineReferences(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM material_lines WHERE material_id = $1`, id).Scan(&count)
	return count, err
}
