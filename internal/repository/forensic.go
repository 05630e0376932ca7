// Package repository holds the Postgres-backed implementation of the remote
// document-store contract.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verifixia-ai/verifixia/internal/forensic"
	"github.com/verifixia-ai/verifixia/internal/model"
)

// ForensicRepository persists forensic log entries in Postgres. It satisfies
// forensic.DocumentStore; any store answering equality and range filters on
// indexed fields could replace it.
type ForensicRepository struct {
	pool *pgxpool.Pool
}

// NewForensicRepository returns a ForensicRepository using the given pool.
func NewForensicRepository(pool *pgxpool.Pool) *ForensicRepository {
	return &ForensicRepository{pool: pool}
}

const entryColumns = `id, timestamp, source_type, filename, event_name, prediction,
	confidence, threat_level, tier_used, tier_version, processing_time_ms,
	session_id, user_id, user_email`

// Put inserts the entry under its ID. Entries are immutable, so a replay of
// the same ID is a no-op rather than an update.
func (r *ForensicRepository) Put(ctx context.Context, e model.ForensicLogEntry) (model.ForensicLogEntry, error) {
	ts, ok := forensic.ParseTimestamp(e.Timestamp)
	if !ok {
		ts = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO forensic_logs (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`,
		e.ID,
		ts,
		string(e.SourceType),
		e.Filename,
		e.EventName,
		string(e.Prediction),
		e.Confidence,
		string(e.ThreatLevel),
		string(e.TierUsed),
		e.TierVersion,
		e.ProcessingTimeMs,
		e.SessionID,
		e.UserID,
		e.UserEmail,
	)
	if err != nil {
		return model.ForensicLogEntry{}, fmt.Errorf("insert forensic log: %w", err)
	}
	return e, nil
}

// Query returns one page of entries matching the filter, newest first, plus
// the total match count.
func (r *ForensicRepository) Query(ctx context.Context, f forensic.QueryFilter, offset, limit int) ([]model.ForensicLogEntry, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM forensic_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count forensic logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+entryColumns+`
		FROM forensic_logs%s
		ORDER BY timestamp DESC
		OFFSET $%d LIMIT $%d`, where, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query forensic logs: %w", err)
	}
	defer rows.Close()

	var list []model.ForensicLogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}

// Delete removes one entry by ID. When ownerID is non-empty the row must
// also belong to that owner, so a foreign entry survives an ID match.
func (r *ForensicRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM forensic_logs
		WHERE id = $1 AND ($2 = '' OR user_id = $2)`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete forensic log: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteMatching removes every entry matching the filter and returns the
// removed count.
func (r *ForensicRepository) DeleteMatching(ctx context.Context, f forensic.QueryFilter) (int, error) {
	where, args := buildWhere(f)
	tag, err := r.pool.Exec(ctx, `DELETE FROM forensic_logs`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("clear forensic logs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// buildWhere translates the filter into a WHERE clause with positional args.
func buildWhere(f forensic.QueryFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.SourceType != "" {
		add("source_type = $%d", f.SourceType)
	}
	if f.StartDate != "" {
		if t, ok := forensic.ParseBoundary(f.StartDate, false); ok {
			add("timestamp >= $%d", t)
		}
	}
	if f.EndDate != "" {
		if t, ok := forensic.ParseBoundary(f.EndDate, true); ok {
			add("timestamp <= $%d", t)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

// scanEntry reads one row into an entry, formatting the timestamp back to
// the RFC3339 form used everywhere else.
func scanEntry(rows pgx.Rows) (model.ForensicLogEntry, error) {
	var (
		e  model.ForensicLogEntry
		ts time.Time
	)
	if err := rows.Scan(
		&e.ID,
		&ts,
		&e.SourceType,
		&e.Filename,
		&e.EventName,
		&e.Prediction,
		&e.Confidence,
		&e.ThreatLevel,
		&e.TierUsed,
		&e.TierVersion,
		&e.ProcessingTimeMs,
		&e.SessionID,
		&e.UserID,
		&e.UserEmail,
	); err != nil {
		return model.ForensicLogEntry{}, fmt.Errorf("scan forensic log: %w", err)
	}
	e.Timestamp = ts.UTC().Format(time.RFC3339Nano)
	return e, nil
}
