package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

var messageColumns = []string{
	"id", "thread_id", "sender_id", "receiver_id", "booking_id", "resource_id",
	"content", "is_read", "read_at", "created_at",
}

// threadsSQL picks the latest message of each of the user's threads and
// counts what is still unread for them.
const threadsSQL = `
WITH mine AS (
    SELECT * FROM public.messages WHERE sender_id = $1 OR receiver_id = $1
), latest AS (
    SELECT DISTINCT ON (thread_id) *
    FROM mine
    ORDER BY thread_id, created_at DESC, id DESC
)
SELECT l.thread_id,
       CASE WHEN l.sender_id = $1 THEN l.receiver_id ELSE l.sender_id END,
       l.content,
       l.created_at,
       (SELECT count(*) FROM mine u WHERE u.thread_id = l.thread_id AND u.receiver_id = $1 AND NOT u.is_read),
       l.booking_id,
       l.resource_id,
       count(*) OVER()
FROM latest l
ORDER BY l.created_at DESC, l.thread_id
LIMIT $2 OFFSET $3`

func scanMessage(row pgx.Row, extra ...any) (*Message, error) {
	var m Message
	dest := append([]any{
		&m.ID, &m.ThreadID, &m.SenderID, &m.ReceiverID, &m.BookingID, &m.ResourceID,
		&m.Content, &m.IsRead, &m.ReadAt, &m.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &m, nil
}

func pgCode(err error) string {
	var e *pgconn.PgError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}

func (r *pgxRepository) Create(ctx context.Context, m *Message) error {
	query, args, err := psql.Insert("public.messages").
		Columns("thread_id", "sender_id", "receiver_id", "booking_id", "resource_id", "content", "created_at").
		Values(m.ThreadID, m.SenderID, m.ReceiverID, m.BookingID, m.ResourceID, m.Content, m.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create message query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&m.ID); err != nil {
		if pgCode(err) == pgerrcode.ForeignKeyViolation {
			return ErrContextNotFound
		}
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Message, error) {
	query, args, err := psql.Select(messageColumns...).
		From("public.messages").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get message query failed: %w", err)
	}

	m, err := scanMessage(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgerrcode.InvalidTextRepresentation {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get message failed: %w", err)
	}
	return m, nil
}

func (r *pgxRepository) ListThreads(ctx context.Context, userID string, page, pageSize int) ([]*Thread, int, error) {
	page, pageSize = normalizePage(page, pageSize)

	rows, err := r.pool.Query(ctx, threadsSQL, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		if pgCode(err) == pgerrcode.InvalidTextRepresentation {
			return []*Thread{}, 0, nil
		}
		return nil, 0, fmt.Errorf("list threads failed: %w", err)
	}
	defer rows.Close()

	result := []*Thread{}
	var total int
	for rows.Next() {
		var t Thread
		if err := rows.Scan(
			&t.ThreadID, &t.OtherUserID, &t.LatestMessage, &t.LatestAt,
			&t.UnreadCount, &t.BookingID, &t.ResourceID, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan thread failed: %w", err)
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate threads failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) ListThread(ctx context.Context, filter ThreadFilter) ([]*Message, int, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	query := psql.Select(append(messageColumns, "count(*) OVER() as total_count")...).
		From("public.messages").
		Where(squirrel.Eq{"thread_id": filter.ThreadID})
	if filter.ParticipantID != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"sender_id": filter.ParticipantID},
			squirrel.Eq{"receiver_id": filter.ParticipantID},
		})
	}
	query = query.OrderBy("created_at ASC", "id ASC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list thread query failed: %w", err)
	}
	return r.queryMessages(ctx, sql, args)
}

func (r *pgxRepository) queryMessages(ctx context.Context, sql string, args []any) ([]*Message, int, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		if pgCode(err) == pgerrcode.InvalidTextRepresentation {
			return []*Message{}, 0, nil
		}
		return nil, 0, fmt.Errorf("list messages failed: %w", err)
	}
	defer rows.Close()

	result := []*Message{}
	var total int
	for rows.Next() {
		m, err := scanMessage(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan message failed: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate messages failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	query, args, err := psql.Update("public.messages").
		Set("is_read", true).
		Set("read_at", squirrel.Expr("COALESCE(read_at, ?)", at)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark message read query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark message read failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) MarkThreadRead(ctx context.Context, threadID, receiverID string, at time.Time) (int, error) {
	query, args, err := psql.Update("public.messages").
		Set("is_read", true).
		Set("read_at", at).
		Where(squirrel.Eq{"thread_id": threadID, "receiver_id": receiverID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build mark thread read query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark thread read failed: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

func (r *pgxRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	query, args, err := psql.Select("count(*)").
		From("public.messages").
		Where(squirrel.Eq{"receiver_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build unread count query failed: %w", err)
	}

	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("unread count failed: %w", err)
	}
	return n, nil
}

func (r *pgxRepository) Search(ctx context.Context, userID, term string, limit int) ([]*Message, error) {
	query := psql.Select(append(messageColumns, "count(*) OVER() as total_count")...).
		From("public.messages").
		Where(squirrel.Or{
			squirrel.Eq{"sender_id": userID},
			squirrel.Eq{"receiver_id": userID},
		}).
		Where(squirrel.ILike{"content": "%" + escapeLike(term) + "%"}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search messages query failed: %w", err)
	}
	messages, _, err := r.queryMessages(ctx, sql, args)
	return messages, err
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.messages").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete message query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete message failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// escapeLike makes term match literally inside an ILIKE pattern.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
