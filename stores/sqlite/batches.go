// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mdhender/asnlex/model"
)

// InsertUploadBatch inserts an UploadBatch and returns its assigned ID.
func (s *SQLiteStore) InsertUploadBatch(ctx context.Context, batch *model.UploadBatch) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO upload_batches (label, created_by, created_at) VALUES (?, ?, ?)`,
		batch.Label, nullString(batch.CreatedBy), timestamp(batch.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert upload_batch: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("upload_batch id: %w", err)
	}
	batch.ID = id
	return id, nil
}

// GetUploadBatch retrieves an UploadBatch by ID, or nil if not found.
func (s *SQLiteStore) GetUploadBatch(ctx context.Context, id int64) (*model.UploadBatch, error) {
	var batch model.UploadBatch
	var createdBy sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, label, created_by, created_at FROM upload_batches WHERE id = ?`, id,
	).Scan(&batch.ID, &batch.Label, &createdBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get upload_batch %d: %w", id, err)
	}
	batch.CreatedBy = createdBy.String
	batch.CreatedAt = parseTime(createdAt)
	return &batch, nil
}
