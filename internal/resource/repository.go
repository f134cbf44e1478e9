package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, res *Resource) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const resourceColumns = `id, name, description, category, location, capacity, hourly_rate, status, owner_id, created_at, updated_at`

func scanResource(row pgx.Row, extra ...any) (*Resource, error) {
	var res Resource
	dest := []any{
		&res.ID, &res.Name, &res.Description, &res.Category, &res.Location,
		&res.Capacity, &res.HourlyRate, &res.Status, &res.OwnerID, &res.CreatedAt, &res.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	const query = `
		INSERT INTO public.resources (name, description, category, location, capacity, hourly_rate, status, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		res.Name, res.Description, res.Category, res.Location,
		res.Capacity, res.HourlyRate, res.Status, res.OwnerID,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM public.resources WHERE id = $1`

	res, err := scanResource(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return res, nil
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"capacity":   "capacity",
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	var args []any
	queryBase := `
		SELECT ` + resourceColumns + `, count(*) OVER() as total_count
		FROM public.resources
		WHERE 1=1
	`
	paramIndex := 1

	if filter.Category != "" {
		queryBase += fmt.Sprintf(" AND category = $%d", paramIndex)
		args = append(args, filter.Category)
		paramIndex++
	}
	if filter.Status != "" {
		queryBase += fmt.Sprintf(" AND status = $%d", paramIndex)
		args = append(args, filter.Status)
		paramIndex++
	}
	if filter.MinCapacity > 0 {
		queryBase += fmt.Sprintf(" AND capacity >= $%d", paramIndex)
		args = append(args, filter.MinCapacity)
		paramIndex++
	}
	if filter.Search != "" {
		queryBase += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", paramIndex, paramIndex)
		args = append(args, "%"+filter.Search+"%")
		paramIndex++
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" || filter.SortOrder == "asc" {
		orderDir = "ASC"
	}
	queryBase += " ORDER BY " + orderBy + " " + orderDir + ", id"

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBase += fmt.Sprintf(" LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, filter.PageSize, offset)

	rows, err := r.pool.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	result := []*Resource{}
	var total int
	for rows.Next() {
		res, err := scanResource(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate resources failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, res *Resource) error {
	const query = `
		UPDATE public.resources
		SET name = $1, description = $2, category = $3, location = $4,
		    capacity = $5, hourly_rate = $6, status = $7, updated_at = now()
		WHERE id = $8
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		res.Name, res.Description, res.Category, res.Location,
		res.Capacity, res.HourlyRate, res.Status, res.ID,
	).Scan(&res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update resource failed: %w", err)
	}
	return nil
}
