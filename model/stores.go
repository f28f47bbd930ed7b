// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import "context"

// Store is the persistence interface used by the pipeline.
type Store interface {
	// stages

	InsertUploadBatch(ctx context.Context, batch *UploadBatch) (int64, error)
	GetUploadBatch(ctx context.Context, id int64) (*UploadBatch, error)
	InsertWork(ctx context.Context, work *Work) (int64, error)
	ClaimWork(ctx context.Context, stage, workerID string) (*Work, error)
	FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error
	ResetFailedWork(ctx context.Context, stage string) (int, error)
	GetFailedWork(ctx context.Context, stage string) ([]Work, error)
	GetWorkSummaryByBatch(ctx context.Context, batchID int64) (map[string]map[string]int, error)

	// ingest

	GetSourceUnitByDigest(ctx context.Context, digest string) (*SourceUnit, error)
	GetSourceUnitByID(ctx context.Context, id int64) (*SourceUnit, error)
	InsertSourceUnit(ctx context.Context, su *SourceUnit) (int64, error)

	// scans

	InsertScan(ctx context.Context, scan *Scan) (int64, error)
	GetLatestScan(ctx context.Context, sourceUnitID int64) (*Scan, error)
	ListDiagnostics(ctx context.Context, scanID int64) ([]*Diagnostic, error)
	ListLiterals(ctx context.Context, scanID int64) ([]*Literal, error)

	Stats(ctx context.Context) (Stats, error)
	TableStats(ctx context.Context) (map[string]int64, error)
	Close() error
}

// Stats holds store statistics.
type Stats struct {
	SourceUnits int
	Scans       int
	Diagnostics int
	Literals    int
	FailedWork  int
}
