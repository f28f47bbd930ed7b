// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mdhender/asnlex/model"
)

// InsertScan stores a scan with its diagnostics and literals in a single
// transaction and returns the scan ID. The IDs of the child rows are set.
func (s *SQLiteStore) InsertScan(ctx context.Context, scan *model.Scan) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const scanQuery = `
		INSERT INTO scans (source_unit_id, has_bom, token_count, diagnostic_count, literal_count,
		                   fatal_code, fatal_message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, scanQuery,
		scan.SourceUnitID,
		boolToInt(scan.HasBOM),
		scan.TokenCount,
		scan.DiagnosticCount,
		scan.LiteralCount,
		nullString(scan.FatalCode),
		nullString(scan.FatalMessage),
		timestamp(scan.StartedAt),
		timestamp(scan.FinishedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert scan: %w", err)
	}
	scanID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("scan id: %w", err)
	}

	const diagQuery = `
		INSERT INTO diagnostics (scan_id, seq, code, severity, message, fatal,
		                         start_offset, end_offset, line, col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, d := range scan.Diagnostics {
		d.ScanID = scanID
		result, err := tx.ExecContext(ctx, diagQuery,
			scanID, d.Seq, d.Code, d.Severity, d.Message, boolToInt(d.Fatal),
			d.Span.Start, d.Span.End, d.Span.Line, d.Span.Column,
		)
		if err != nil {
			return 0, fmt.Errorf("insert diagnostic %d: %w", d.Seq, err)
		}
		if d.ID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("diagnostic id: %w", err)
		}
	}

	const litQuery = `
		INSERT INTO literals (scan_id, handle, raw, value, oid_iri,
		                      start_offset, end_offset, line, col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, lit := range scan.Literals {
		lit.ScanID = scanID
		result, err := tx.ExecContext(ctx, litQuery,
			scanID, lit.Handle, lit.Raw, lit.Value, nullString(lit.OidIri),
			lit.Span.Start, lit.Span.End, lit.Span.Line, lit.Span.Column,
		)
		if err != nil {
			return 0, fmt.Errorf("insert literal %d: %w", lit.Handle, err)
		}
		if lit.ID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("literal id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	scan.ID = scanID
	return scanID, nil
}

// GetLatestScan returns the most recent scan of a source unit, or nil if
// it has never been scanned. Diagnostics and literals are not loaded.
func (s *SQLiteStore) GetLatestScan(ctx context.Context, sourceUnitID int64) (*model.Scan, error) {
	const query = `
		SELECT id, source_unit_id, has_bom, token_count, diagnostic_count, literal_count,
		       fatal_code, fatal_message, started_at, finished_at
		FROM scans
		WHERE source_unit_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	var scan model.Scan
	var hasBOM int64
	var fatalCode, fatalMessage sql.NullString
	var startedAt, finishedAt string
	err := s.db.QueryRowContext(ctx, query, sourceUnitID).Scan(
		&scan.ID, &scan.SourceUnitID, &hasBOM,
		&scan.TokenCount, &scan.DiagnosticCount, &scan.LiteralCount,
		&fatalCode, &fatalMessage, &startedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}
	scan.HasBOM = hasBOM != 0
	scan.FatalCode = fatalCode.String
	scan.FatalMessage = fatalMessage.String
	scan.StartedAt = parseTime(startedAt)
	scan.FinishedAt = parseTime(finishedAt)
	return &scan, nil
}

// ListDiagnostics returns the diagnostics of a scan in report order.
func (s *SQLiteStore) ListDiagnostics(ctx context.Context, scanID int64) ([]*model.Diagnostic, error) {
	const query = `
		SELECT id, scan_id, seq, code, severity, message, fatal,
		       start_offset, end_offset, line, col
		FROM diagnostics
		WHERE scan_id = ?
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	defer rows.Close()

	var list []*model.Diagnostic
	for rows.Next() {
		var d model.Diagnostic
		var fatal int64
		if err := rows.Scan(
			&d.ID, &d.ScanID, &d.Seq, &d.Code, &d.Severity, &d.Message, &fatal,
			&d.Span.Start, &d.Span.End, &d.Span.Line, &d.Span.Column,
		); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Fatal = fatal != 0
		list = append(list, &d)
	}
	return list, rows.Err()
}

// ListLiterals returns the ambiguous literals of a scan in handle order.
func (s *SQLiteStore) ListLiterals(ctx context.Context, scanID int64) ([]*model.Literal, error) {
	const query = `
		SELECT id, scan_id, handle, raw, value, oid_iri,
		       start_offset, end_offset, line, col
		FROM literals
		WHERE scan_id = ?
		ORDER BY handle
	`
	rows, err := s.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("list literals: %w", err)
	}
	defer rows.Close()

	var list []*model.Literal
	for rows.Next() {
		var lit model.Literal
		var oidIri sql.NullString
		if err := rows.Scan(
			&lit.ID, &lit.ScanID, &lit.Handle, &lit.Raw, &lit.Value, &oidIri,
			&lit.Span.Start, &lit.Span.End, &lit.Span.Line, &lit.Span.Column,
		); err != nil {
			return nil, fmt.Errorf("scan literal: %w", err)
		}
		lit.OidIri = oidIri.String
		list = append(list, &lit)
	}
	return list, rows.Err()
}
