package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Enqueue records source as pending. Enqueueing a known source returns the
// existing item unchanged apart from its output path.
func (s *Store) Enqueue(ctx context.Context, source, output string) (*Item, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("source path is required")
	}
	ts := s.timestamp()
	if _, err := s.exec(ctx,
		`INSERT INTO ledger_items (source_path, output_path, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(source_path) DO UPDATE SET output_path = excluded.output_path`,
		source, output, StatusPending, ts, ts,
	); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", source, err)
	}
	return s.GetBySource(ctx, source)
}

// GetByID fetches an item, or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM ledger_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetBySource fetches the item for a source path, or nil.
func (s *Store) GetBySource(ctx context.Context, source string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM ledger_items WHERE source_path = ?`, source)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item by source: %w", err)
	}
	return item, nil
}

// List returns items in insertion order, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM ledger_items`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkEncoding records that a run for id has started.
func (s *Store) MarkEncoding(ctx context.Context, id int64, jobID string) error {
	ts := s.timestamp()
	return s.transition(ctx, id,
		`UPDATE ledger_items
         SET status = ?, job_id = ?, stage = NULL, error_kind = NULL, error_message = NULL,
             failed_segments = NULL, started_at = ?, finished_at = NULL, updated_at = ?
         WHERE id = ?`,
		StatusEncoding, nullableString(jobID), ts, ts, id,
	)
}

// MarkCompleted records a validated, published output.
func (s *Store) MarkCompleted(ctx context.Context, id int64, frames int64) error {
	ts := s.timestamp()
	return s.transition(ctx, id,
		`UPDATE ledger_items
         SET status = ?, stage = 'validate', frames = ?, error_kind = NULL, error_message = NULL,
             failed_segments = NULL, finished_at = ?, updated_at = ?
         WHERE id = ?`,
		StatusCompleted, frames, ts, ts, id,
	)
}

// MarkFailed records why a run for id failed.
func (s *Store) MarkFailed(ctx context.Context, id int64, failure Failure) error {
	var segments any
	if len(failure.FailedSegments) > 0 {
		data, err := json.Marshal(failure.FailedSegments)
		if err != nil {
			return fmt.Errorf("encode failed segments: %w", err)
		}
		segments = string(data)
	}
	ts := s.timestamp()
	return s.transition(ctx, id,
		`UPDATE ledger_items
         SET status = ?, stage = ?, error_kind = ?, error_message = ?, failed_segments = ?,
             finished_at = ?, updated_at = ?
         WHERE id = ?`,
		StatusFailed, nullableString(failure.Stage), nullableString(failure.Kind),
		nullableString(failure.Message), segments, ts, ts, id,
	)
}

func (s *Store) transition(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update item %d: not found", id)
	}
	return nil
}

// ResetStale moves items left in encoding by an interrupted batch back to
// pending.
func (s *Store) ResetStale(ctx context.Context) (int64, error) {
	return s.resetStatus(ctx, StatusEncoding)
}

// RetryFailed moves every failed item back to pending.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	return s.resetStatus(ctx, StatusFailed)
}

func (s *Store) resetStatus(ctx context.Context, from Status) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE ledger_items SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending, s.timestamp(), from,
	)
	if err != nil {
		return 0, fmt.Errorf("reset %s items: %w", from, err)
	}
	return res.RowsAffected()
}

// ClearCompleted removes completed items.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM ledger_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM ledger_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
