package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/asimzz/text-summarization-system/internal/model"
)

// insertRequestLogQuery only writes when the referenced user still exists
// under the same id, so a log never points at a deleted or replaced account.
const insertRequestLogQuery = `
	INSERT INTO request_logs (
		id, username, user_id, time, endpoint,
		request_body, request_headers, response_body, status_code, created_at
	)
	SELECT $1::text, $2::text, $3::text, $4::timestamptz, $5::text,
	       $6::jsonb, $7::jsonb, $8::jsonb, $9::integer, NOW()
	WHERE EXISTS (SELECT 1 FROM users WHERE id = $3::text AND username = $2::text)
	ON CONFLICT (id) DO NOTHING
`

// InsertRequestLog appends a single request log.
// Returns ErrUserNotFound if the entry's user no longer exists.
func (r *Repository) InsertRequestLog(ctx context.Context, entry *model.RequestLog) error {
	tag, err := r.pool.Exec(ctx, insertRequestLogQuery, requestLogArgs(entry)...)
	if err != nil {
		return fmt.Errorf("failed to insert request log: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing inserted: either a replayed id or a missing user.
	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND username = $2)`,
		entry.UserID, entry.Username,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check request log user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

// BulkInsertRequestLogs inserts multiple request logs with idempotency via ON CONFLICT DO NOTHING.
// Entries whose user no longer exists are skipped.
func (r *Repository) BulkInsertRequestLogs(ctx context.Context, entries []*model.RequestLog) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(insertRequestLogQuery, requestLogArgs(entry)...)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(entries); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert request log %d: %w", i, err)
		}
	}

	return nil
}

// ListRequestLogsByUsername returns the most recent request logs for a user, newest first.
func (r *Repository) ListRequestLogsByUsername(ctx context.Context, username string, limit int) ([]*model.RequestLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT id, username, user_id, time, endpoint,
		       request_body, request_headers, response_body, status_code, created_at
		FROM request_logs
		WHERE username = $1
		ORDER BY time DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list request logs: %w", err)
	}
	defer rows.Close()

	var logs []*model.RequestLog
	for rows.Next() {
		var entry model.RequestLog
		if err := rows.Scan(
			&entry.ID,
			&entry.Username,
			&entry.UserID,
			&entry.Time,
			&entry.Endpoint,
			&entry.RequestBody,
			&entry.RequestHeaders,
			&entry.ResponseBody,
			&entry.StatusCode,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request log: %w", err)
		}
		logs = append(logs, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate request logs: %w", err)
	}

	return logs, nil
}

func requestLogArgs(entry *model.RequestLog) []any {
	headers := entry.RequestHeaders
	if headers == nil {
		headers = map[string]string{}
	}
	return []any{
		entry.ID,
		entry.Username,
		entry.UserID,
		entry.Time,
		entry.Endpoint,
		jsonOrEmpty(entry.RequestBody),
		headers,
		jsonOrEmpty(entry.ResponseBody),
		entry.StatusCode,
	}
}

// jsonOrEmpty substitutes an empty object for a missing JSON document.
func jsonOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}
