package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.resource_id", "b.requester_id", "b.start_time", "b.end_time", "b.status",
	"b.purpose", "b.attendees_count", "b.total_cost",
	"b.cancellation_reason", "b.cancelled_at", "b.confirmed_by",
	"b.created_at", "b.updated_at",
}

var sortableColumns = map[string]string{
	"start_time": "b.start_time",
	"end_time":   "b.end_time",
	"created_at": "b.created_at",
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository returns a Store backed by the bookings table, whose
// exclusion constraint backs the no-overlap invariant.
func NewPgxRepository(pool *pgxpool.Pool) Store {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin booking tx failed: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

func (r *pgxRepository) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	dest := []any{
		&b.ID, &b.ResourceID, &b.RequesterID, &b.StartTime, &b.EndTime, &b.Status,
		&b.Purpose, &b.AttendeesCount, &b.TotalCost,
		&b.CancellationReason, &b.CancelledAt, &b.ConfirmedBy,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.q(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := psql.Select(append(bookingColumns, "count(*) OVER() AS total_count")...).
		From("public.bookings b")

	if filter.RequesterID != "" {
		query = query.Where(squirrel.Eq{"b.requester_id": filter.RequesterID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"b.resource_id": filter.ResourceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.StartTime != nil {
		query = query.Where(squirrel.GtOrEq{"b.end_time": filter.StartTime})
	}
	if filter.EndTime != nil {
		query = query.Where(squirrel.LtOrEq{"b.start_time": filter.EndTime})
	}

	orderBy, ok := sortableColumns[filter.SortBy]
	if !ok {
		orderBy = "b.start_time"
	}
	orderDir := "DESC"
	if filter.SortOrder == "asc" || filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "b.id")

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
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	bookings := []*Booking{}
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}
	return bookings, total, nil
}

func (r *pgxRepository) ListActiveForResource(ctx context.Context, resourceID string) ([]*Booking, error) {
	sql, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Eq{"b.resource_id": resourceID}).
		Where(squirrel.Eq{"b.status": []string{string(StatusPending), string(StatusConfirmed)}}).
		OrderBy("b.start_time").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active bookings query failed: %w", err)
	}
	return r.queryBookings(ctx, sql, args)
}

func (r *pgxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*Booking, error) {
	query := psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Or{
			squirrel.And{squirrel.Eq{"b.status": string(StatusConfirmed)}, squirrel.LtOrEq{"b.end_time": now}},
			squirrel.And{squirrel.Eq{"b.status": string(StatusPending)}, squirrel.LtOrEq{"b.start_time": now}},
		}).
		OrderBy("b.start_time")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list due bookings query failed: %w", err)
	}
	return r.queryBookings(ctx, sql, args)
}

func (r *pgxRepository) queryBookings(ctx context.Context, sql string, args []any) ([]*Booking, error) {
	return queryBookingsWith(ctx, r.q(ctx), sql, args)
}

func queryBookingsWith(ctx context.Context, q querier, sql string, args []any) ([]*Booking, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query bookings failed: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *pgxRepository) Insert(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"resource_id", "requester_id", "start_time", "end_time", "status",
			"purpose", "attendees_count", "total_cost", "confirmed_by",
		).
		Values(
			b.ResourceID, b.RequesterID, b.StartTime, b.EndTime, b.Status,
			b.Purpose, b.AttendeesCount, b.TotalCost, b.ConfirmedBy,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.q(ctx).QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if isExclusionViolation(err) {
			return r.overlapConflict(ctx, b)
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.bookings").
		Set("status", b.Status).
		Set("cancellation_reason", b.CancellationReason).
		Set("cancelled_at", b.CancelledAt).
		Set("confirmed_by", b.ConfirmedBy).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking status query failed: %w", err)
	}
	return r.execUpdate(ctx, b, query, args)
}

func (r *pgxRepository) UpdateWindow(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.bookings").
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Set("attendees_count", b.AttendeesCount).
		Set("total_cost", b.TotalCost).
		Set("status", b.Status).
		Set("confirmed_by", b.ConfirmedBy).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking window query failed: %w", err)
	}
	return r.execUpdate(ctx, b, query, args)
}

func (r *pgxRepository) execUpdate(ctx context.Context, b *Booking, query string, args []any) error {
	if err := r.q(ctx).QueryRow(ctx, query, args...).Scan(&b.UpdatedAt); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ErrNotFound
		case isExclusionViolation(err):
			return r.overlapConflict(ctx, b)
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	return nil
}

// overlapConflict names the committed bookings that tripped the exclusion
// constraint. The current transaction is aborted by then, so the lookup runs
// on the pool.
func (r *pgxRepository) overlapConflict(ctx context.Context, b *Booking) error {
	sql, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Eq{"b.resource_id": b.ResourceID}).
		Where(squirrel.Eq{"b.status": []string{string(StatusPending), string(StatusConfirmed)}}).
		Where(squirrel.Lt{"b.start_time": b.EndTime}).
		Where(squirrel.Gt{"b.end_time": b.StartTime}).
		OrderBy("b.start_time").
		ToSql()
	if err != nil {
		return &apperror.ConflictError{}
	}

	active, err := queryBookingsWith(ctx, r.pool, sql, args)
	if err != nil {
		return &apperror.ConflictError{}
	}
	return conflictWith(b, active)
}

func conflictWith(b *Booking, active []*Booking) *apperror.ConflictError {
	return &apperror.ConflictError{BookingIDs: IDs(FindConflicts(b.ResourceID, b.Window(), active, b.ID))}
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}
