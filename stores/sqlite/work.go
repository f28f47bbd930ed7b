// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mdhender/asnlex/model"
)

// workColumns is the column list read by scanWork.
const workColumns = `id, source_unit_id, stage, status, attempt, available_at,
	locked_by, locked_at, started_at, finished_at, error_code, error_message`

// InsertWork queues a job and returns its assigned ID.
func (s *SQLiteStore) InsertWork(ctx context.Context, work *model.Work) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO work (source_unit_id, stage, status, attempt, available_at) VALUES (?, ?, ?, ?, ?)`,
		work.SourceUnitID, work.Stage, work.Status, work.Attempt, timestamp(work.AvailableAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert work: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("work id: %w", err)
	}
	work.ID = id
	return id, nil
}

// ClaimWork marks the oldest available queued job for stage as running and
// returns it. Two workers never claim the same job. It returns nil when
// the queue is empty.
func (s *SQLiteStore) ClaimWork(ctx context.Context, stage, workerID string) (*model.Work, error) {
	now := timestamp(time.Now())
	row := s.db.QueryRowContext(ctx, `
		UPDATE work
		SET status = 'running', locked_by = ?, locked_at = ?,
		    started_at = COALESCE(started_at, ?), attempt = attempt + 1
		WHERE id = (
			SELECT id FROM work
			WHERE stage = ? AND status = 'queued' AND available_at <= ?
			ORDER BY available_at, id
			LIMIT 1
		)
		RETURNING `+workColumns,
		workerID, now, now, stage, now,
	)
	work, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("claim work: %w", err)
	}
	return work, nil
}

// FinishWork moves a running job to ok or failed. The error columns are
// cleared when errorCode and errorMsg are empty.
func (s *SQLiteStore) FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error {
	if status != model.WorkStatusOk && status != model.WorkStatusFailed {
		return fmt.Errorf("finish work %d: invalid status %q", id, status)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE work
		SET status = ?, finished_at = ?, error_code = ?, error_message = ?,
		    locked_by = NULL, locked_at = NULL
		WHERE id = ? AND status = 'running'`,
		status, timestamp(time.Now()), nullString(errorCode), nullString(errorMsg), id,
	)
	if err != nil {
		return fmt.Errorf("finish work %d: %w", id, err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("finish work %d: %w", id, err)
	} else if n == 0 {
		return fmt.Errorf("finish work %d: not running", id)
	}
	return nil
}

// ResetFailedWork queues the failed jobs of stage again and returns how many
// were reset. The attempt counter is kept.
func (s *SQLiteStore) ResetFailedWork(ctx context.Context, stage string) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE work
		SET status = 'queued', available_at = ?,
		    locked_by = NULL, locked_at = NULL, finished_at = NULL,
		    error_code = NULL, error_message = NULL
		WHERE stage = ? AND status = 'failed'`,
		timestamp(time.Now()), stage,
	)
	if err != nil {
		return 0, fmt.Errorf("reset failed work: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset failed work: %w", err)
	}
	return int(n), nil
}

// GetFailedWork returns the failed jobs of stage in the order they were queued.
func (s *SQLiteStore) GetFailedWork(ctx context.Context, stage string) ([]model.Work, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+workColumns+` FROM work WHERE stage = ? AND status = 'failed' ORDER BY id`, stage)
	if err != nil {
		return nil, fmt.Errorf("get failed work: %w", err)
	}
	defer rows.Close()

	var list []model.Work
	for rows.Next() {
		work, err := scanWork(rows)
		if err != nil {
			return nil, fmt.Errorf("get failed work: %w", err)
		}
		list = append(list, *work)
	}
	return list, rows.Err()
}

// GetWorkSummaryByBatch counts the jobs of a batch by stage and status.
func (s *SQLiteStore) GetWorkSummaryByBatch(ctx context.Context, batchID int64) (map[string]map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.stage, w.status, COUNT(*)
		FROM work w
		JOIN source_units su ON su.id = w.source_unit_id
		WHERE su.batch_id = ?
		GROUP BY w.stage, w.status`, batchID)
	if err != nil {
		return nil, fmt.Errorf("work summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]map[string]int)
	for rows.Next() {
		var stage, status string
		var count int
		if err := rows.Scan(&stage, &status, &count); err != nil {
			return nil, fmt.Errorf("work summary: %w", err)
		}
		byStatus, ok := summary[stage]
		if !ok {
			byStatus = make(map[string]int)
			summary[stage] = byStatus
		}
		byStatus[status] = count
	}
	return summary, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWork(row rowScanner) (*model.Work, error) {
	var w model.Work
	var availableAt string
	var lockedBy, lockedAt, startedAt, finishedAt, errorCode, errorMessage sql.NullString
	if err := row.Scan(
		&w.ID, &w.SourceUnitID, &w.Stage, &w.Status, &w.Attempt, &availableAt,
		&lockedBy, &lockedAt, &startedAt, &finishedAt, &errorCode, &errorMessage,
	); err != nil {
		return nil, err
	}
	w.AvailableAt = parseTime(availableAt)
	w.LockedBy = nullStringPtr(lockedBy)
	w.LockedAt = parseTimePtr(lockedAt)
	w.StartedAt = parseTimePtr(startedAt)
	w.FinishedAt = parseTimePtr(finishedAt)
	w.ErrorCode = nullStringPtr(errorCode)
	w.ErrorMessage = nullStringPtr(errorMessage)
	return &w, nil
}
