package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind says which pipeline a run belongs to.
type Kind string

const (
	KindSync  Kind = "sync"
	KindMerge Kind = "merge"
)

// Run is one recorded pipeline execution. The pipeline never reads runs
// back; they exist for `sori history` and post-mortems only.
type Run struct {
	ID         int64
	RunID      string
	Kind       Kind
	StartedAt  time.Time
	FinishedAt time.Time
	Planned    int
	Copied     int
	Generated  int
	Failed     int
	Removed    int
	StoreBytes int64
	Error      string
}

// Elapsed returns the run's wall-clock duration.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Record appends a completed run to the ledger.
func (s *Store) Record(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.RunID) == "" {
		return errors.New("run id required")
	}
	switch run.Kind {
	case KindSync, KindMerge:
	default:
		return fmt.Errorf("unknown run kind %q", run.Kind)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (
            run_id, kind, started_at, finished_at,
            planned, copied, generated, failed, removed, store_bytes, error
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		string(run.Kind),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Planned,
		run.Copied,
		run.Generated,
		run.Failed,
		run.Removed,
		run.StoreBytes,
		nullableString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	ctx = ensureContext(ctx)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, kind, started_at, finished_at,
                planned, copied, generated, failed, removed, store_bytes, error
           FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run        Run
		kind       string
		startedAt  string
		finishedAt string
		errText    sql.NullString
	)
	if err := rows.Scan(
		&run.ID, &run.RunID, &kind, &startedAt, &finishedAt,
		&run.Planned, &run.Copied, &run.Generated, &run.Failed,
		&run.Removed, &run.StoreBytes, &errText,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Kind = Kind(kind)
	run.StartedAt = parseTimestamp(startedAt)
	run.FinishedAt = parseTimestamp(finishedAt)
	if errText.Valid {
		run.Error = errText.String
	}
	return run, nil
}

func parseTimestamp(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	return time.Time{}
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
