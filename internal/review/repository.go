package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Store {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var reviewColumns = []string{
	"id", "resource_id", "reviewer_id", "rating", "comment", "is_flagged", "is_hidden",
	"flagged_by", "moderation_notes", "created_at", "updated_at",
}

var sortableColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"rating":     "rating",
}

func scanReview(row pgx.Row, extra ...any) (*Review, error) {
	var r Review
	dest := append([]any{
		&r.ID, &r.ResourceID, &r.ReviewerID, &r.Rating, &r.Comment, &r.IsFlagged, &r.IsHidden,
		&r.FlaggedBy, &r.ModerationNotes, &r.CreatedAt, &r.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &r, nil
}

func pgCode(err error) string {
	var e *pgconn.PgError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func (r *pgxRepository) Create(ctx context.Context, rv *Review) error {
	query, args, err := psql.Insert("public.reviews").
		Columns("resource_id", "reviewer_id", "rating", "comment").
		Values(rv.ResourceID, rv.ReviewerID, rv.Rating, rv.Comment).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create review query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
		switch pgCode(err) {
		case pgerrcode.UniqueViolation:
			return ErrAlreadyReviewed
		case pgerrcode.ForeignKeyViolation:
			return ErrResourceNotFound
		}
		return fmt.Errorf("create review failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Review, error) {
	query, args, err := psql.Select(reviewColumns...).
		From("public.reviews").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get review query failed: %w", err)
	}

	rv, err := scanReview(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgerrcode.InvalidTextRepresentation {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review failed: %w", err)
	}
	return rv, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Review, int, error) {
	query := psql.Select(append(reviewColumns, "count(*) OVER() as total_count")...).
		From("public.reviews")

	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"resource_id": filter.ResourceID})
	}
	if filter.ReviewerID != "" {
		query = query.Where(squirrel.Eq{"reviewer_id": filter.ReviewerID})
	}
	if filter.FlaggedOnly {
		query = query.Where(squirrel.Eq{"is_flagged": true})
	}
	if !filter.IncludeHidden {
		query = query.Where(squirrel.Eq{"is_hidden": false})
	}

	// Sorting
	orderBy, ok := sortableColumns[filter.SortBy]
	if !ok {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "id "+orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list review query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews failed: %w", err)
	}
	defer rows.Close()

	result := []*Review{}
	var total int

	for rows.Next() {
		rv, err := scanReview(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review failed: %w", err)
		}
		result = append(result, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) SetHidden(ctx context.Context, id string, hidden bool, notes *string) error {
	update := psql.Update("public.reviews").
		Set("is_hidden", hidden).
		Set("moderation_notes", notes).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id})
	if !hidden {
		update = update.Set("is_flagged", false).Set("flagged_by", nil)
	}
	return r.exec(ctx, update, "set review hidden")
}

func (r *pgxRepository) SetFlagged(ctx context.Context, id, flaggedBy string) error {
	update := psql.Update("public.reviews").
		Set("is_flagged", true).
		Set("flagged_by", flaggedBy).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id})
	return r.exec(ctx, update, "flag review")
}

func (r *pgxRepository) exec(ctx context.Context, b squirrel.UpdateBuilder, op string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query failed: %w", op, err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Summary(ctx context.Context, resourceID string) (Summary, error) {
	query, args, err := psql.Select("COALESCE(AVG(rating), 0)::float8", "count(*)").
		From("public.reviews").
		Where(squirrel.Eq{"resource_id": resourceID, "is_hidden": false}).
		ToSql()
	if err != nil {
		return Summary{}, fmt.Errorf("build review summary query failed: %w", err)
	}

	s := Summary{ResourceID: resourceID}
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.AverageRating, &s.Count); err != nil {
		return Summary{}, fmt.Errorf("review summary failed: %w", err)
	}
	s.AverageRating = math.Round(s.AverageRating*100) / 100
	return s, nil
}
