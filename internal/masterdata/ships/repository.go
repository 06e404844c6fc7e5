package ships

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

// Repository defines persistence for the vessel registry.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, ownerID int64) ([]Ship, int, error)
	Get(ctx context.Context, id int64) (Ship, error)
	Create(ctx context.Context, s Ship) (Ship, error)
	Update(ctx context.Context, id int64, s Ship) error
	Delete(ctx context.Context, id int64) error
	CountOrderReferences(ctx context.Context, id int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var sortColumns = map[string]string{
	"name":            "name",
	"registration_no": "registration_no",
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters, ownerID int64) ([]Ship, int, error) {
	query := `SELECT id, name, registration_no, owner_user_id, created_at, updated_at FROM ships WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM ships WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if ownerID > 0 {
		argCount++
		clause := ` AND owner_user_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, ownerID)
	}
	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR registration_no ILIKE $` + strconv.Itoa(argCount) + `)`
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

	var out []Ship
	for rows.Next() {
		var s Ship
		if err := rows.Scan(&s.ID, &s.Name, &s.RegistrationNo, &s.OwnerUserID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Ship, error) {
	var s Ship
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, registration_no, owner_user_id, created_at, updated_at FROM ships WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.RegistrationNo, &s.OwnerUserID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ship{}, fmt.Errorf("%w: ship %d", httpx.ErrNotFound, id)
		}
		return Ship{}, err
	}
	return s, nil
}

func (r *repository) Create(ctx context.Context, s Ship) (Ship, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ships (name, registration_no, owner_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, s.Name, s.RegistrationNo, s.OwnerUserID).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Ship{}, err
	}
	return s, nil
}

func (r *repository) Update(ctx context.Context, id int64, s Ship) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ships SET name = $1, registration_no = $2, owner_user_id = $3, updated_at = NOW() WHERE id = $4
	`, s.Name, s.RegistrationNo, s.OwnerUserID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ship %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ship %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) CountOrderReferences(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM repair_orders WHERE ship_id = $1`, id).Scan(&count)
	return count, err
}
