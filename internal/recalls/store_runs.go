package recalls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const runColumns = "id, agency, mode, status, started_at, finished_at, items_inserted, items_updated, items_skipped, items_failed, error_text, initiated_by, trace_id, metadata, created_at, updated_at"

// errorTextLimit caps persisted error text so one pathological connector
// message cannot bloat the run table.
const errorTextLimit = 2000

// StartRun creates an ingestion run for (agency, mode) and moves it to
// running. When another run for the same pair is still queued or running,
// StartRun returns ErrRunAlreadyActive without creating a row. The check
// and the insert happen under a single serialized transaction.
func (s *Store) StartRun(ctx context.Context, agency, mode, initiatedBy, traceID string) (*Run, error) {
	if agency == "" || mode == "" {
		return nil, errors.New("agency and mode are required")
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var active int
	row := tx.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM ingestion_runs WHERE agency = ? AND mode = ? AND status IN (?, ?)`,
		agency, mode, RunQueued, RunRunning,
	)
	if err := row.Scan(&active); err != nil {
		return nil, fmt.Errorf("check active runs: %w", err)
	}
	if active > 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrRunAlreadyActive, agency, mode)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	run := &Run{
		ID:          uuid.NewString(),
		Agency:      agency,
		Mode:        mode,
		Status:      RunQueued,
		InitiatedBy: initiatedBy,
		TraceID:     traceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO ingestion_runs (id, agency, mode, status, initiated_by, trace_id, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Agency, run.Mode, run.Status,
		nullableString(run.InitiatedBy), nullableString(run.TraceID),
		timestamp, timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE ingestion_runs SET status = ?, started_at = ?, updated_at = ? WHERE id = ?`,
		RunRunning, timestamp, timestamp, run.ID,
	); err != nil {
		return nil, fmt.Errorf("mark run running: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run start: %w", err)
	}

	run.Status = RunRunning
	run.StartedAt = now
	return run, nil
}

// UpdateRunCounts persists per-item metrics for an in-flight run so
// partial progress stays visible regardless of the final status.
func (s *Store) UpdateRunCounts(ctx context.Context, id string, counts RunCounts) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE ingestion_runs
         SET items_inserted = ?, items_updated = ?, items_skipped = ?, items_failed = ?, updated_at = ?
         WHERE id = ?`,
		counts.Inserted, counts.Updated, counts.Skipped, counts.Failed,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run counts: %w", err)
	}
	return nil
}

// FinishRun transitions a running run into a terminal state exactly once.
// Finishing a run that is not running returns ErrRunNotActive; terminal
// runs stay immutable.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, counts RunCounts, errorText string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	if len(errorText) > errorTextLimit {
		errorText = errorText[:errorTextLimit]
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE ingestion_runs
         SET status = ?, finished_at = ?, items_inserted = ?, items_updated = ?,
             items_skipped = ?, items_failed = ?, error_text = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		status, now,
		counts.Inserted, counts.Updated, counts.Skipped, counts.Failed,
		nullableString(errorText), now,
		id, RunRunning,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotActive, id)
	}
	return nil
}

// RunByID fetches a run by identifier.
func (s *Store) RunByID(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM ingestion_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM ingestion_runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

// ActiveRuns returns runs that are queued or running.
func (s *Store) ActiveRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM ingestion_runs WHERE status IN (?, ?) ORDER BY created_at`,
		RunQueued, RunRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("list active runs: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

// PruneRuns removes terminal runs created before the cutoff.
func (s *Store) PruneRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM ingestion_runs
         WHERE status IN (?, ?, ?, ?) AND created_at < ?`,
		RunSuccess, RunPartial, RunFailed, RunCancelled,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func collectRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id          string
		agency      string
		mode        string
		statusStr   string
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		inserted    int
		updated     int
		skipped     int
		failed      int
		errorText   sql.NullString
		initiatedBy sql.NullString
		traceID     sql.NullString
		metadata    sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&agency,
		&mode,
		&statusStr,
		&startedRaw,
		&finishedRaw,
		&inserted,
		&updated,
		&skipped,
		&failed,
		&errorText,
		&initiatedBy,
		&traceID,
		&metadata,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:     id,
		Agency: agency,
		Mode:   mode,
		Status: RunStatus(statusStr),
		Counts: RunCounts{
			Inserted: inserted,
			Updated:  updated,
			Skipped:  skipped,
			Failed:   failed,
		},
		ErrorText:   errorText.String,
		InitiatedBy: initiatedBy.String,
		TraceID:     traceID.String,
		Metadata:    metadata.String,
	}

	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			run.StartedAt = started
		}
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		run.UpdatedAt = updated
	}
	return run, nil
}
