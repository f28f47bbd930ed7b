// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mdhender/asnlex/model"
)

// InsertSourceUnit inserts a SourceUnit and returns its assigned ID.
func (s *SQLiteStore) InsertSourceUnit(ctx context.Context, su *model.SourceUnit) (int64, error) {
	const query = `
		INSERT INTO source_units (batch_id, name, digest, size, fs_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		nullInt64Ptr(su.BatchID),
		su.Name,
		su.Digest,
		su.Size,
		su.FsPath,
		timestamp(su.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert source_unit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("source_unit id: %w", err)
	}
	su.ID = id
	return id, nil
}

// GetSourceUnitByDigest returns a source unit by content digest, or nil if not found.
func (s *SQLiteStore) GetSourceUnitByDigest(ctx context.Context, digest string) (*model.SourceUnit, error) {
	const query = `
		SELECT id, batch_id, name, digest, size, fs_path, created_at
		FROM source_units
		WHERE digest = ?
	`
	return scanSourceUnit(s.db.QueryRowContext(ctx, query, digest))
}

// GetSourceUnitByID returns a source unit by ID, or nil if not found.
func (s *SQLiteStore) GetSourceUnitByID(ctx context.Context, id int64) (*model.SourceUnit, error) {
	const query = `
		SELECT id, batch_id, name, digest, size, fs_path, created_at
		FROM source_units
		WHERE id = ?
	`
	return scanSourceUnit(s.db.QueryRowContext(ctx, query, id))
}

func scanSourceUnit(row *sql.Row) (*model.SourceUnit, error) {
	var su model.SourceUnit
	var batchID sql.NullInt64
	var createdAt string
	if err := row.Scan(
		&su.ID,
		&batchID,
		&su.Name,
		&su.Digest,
		&su.Size,
		&su.FsPath,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get source_unit: %w", err)
	}
	if batchID.Valid {
		su.BatchID = &batchID.Int64
	}
	su.CreatedAt = parseTime(createdAt)
	return &su, nil
}
