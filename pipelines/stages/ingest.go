// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mdhender/asnlex/model"
	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"
)

// IngestService handles file ingestion into the pipeline.
type IngestService struct {
	store   IngestStore
	dataDir string
	fs      afero.Fs
}

// IngestStore defines the store operations needed by IngestService.
type IngestStore interface {
	InsertUploadBatch(ctx context.Context, batch *model.UploadBatch) (int64, error)
	GetUploadBatch(ctx context.Context, id int64) (*model.UploadBatch, error)
	GetSourceUnitByDigest(ctx context.Context, digest string) (*model.SourceUnit, error)
	InsertSourceUnit(ctx context.Context, su *model.SourceUnit) (int64, error)
	InsertWork(ctx context.Context, work *model.Work) (int64, error)
}

// NewIngestService creates a new IngestService.
func NewIngestService(store IngestStore, dataDir string) *IngestService {
	return &IngestService{
		store:   store,
		dataDir: dataDir,
		fs:      afero.NewOsFs(),
	}
}

// SetFS sets the filesystem for testing.
func (s *IngestService) SetFS(fs afero.Fs) {
	s.fs = fs
}

// IngestRequest contains the parameters for ingesting a file.
type IngestRequest struct {
	Filename string // original filename
	Data     []byte // file content
}

// IngestResult contains the result of an ingest operation.
type IngestResult struct {
	SourceUnitID int64
	WorkID       int64
	Digest       string
	Duplicate    bool // true if file was already ingested (idempotent no-op)
}

// Digest returns the hex BLAKE2b-256 digest used to detect duplicates.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IngestFile copies a single file into the data directory and queues it for scanning.
// Returns IngestResult with Duplicate=true if the file already exists (idempotent no-op).
func (s *IngestService) IngestFile(ctx context.Context, batchID int64, req IngestRequest) (*IngestResult, error) {
	digest := Digest(req.Data)

	existing, err := s.store.GetSourceUnitByDigest(ctx, digest)
	if err != nil {
		return nil, &ErrDatabase{Op: "check duplicate", Err: err}
	}
	if existing != nil {
		return &IngestResult{
			SourceUnitID: existing.ID,
			Digest:       digest,
			Duplicate:    true,
		}, nil
	}

	fsPath := filepath.Join("batches", fmt.Sprintf("%d", batchID), storedFilename(digest, req.Filename))
	fullPath := filepath.Join(s.dataDir, fsPath)

	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, &ErrFile{Op: "mkdir", Path: filepath.Dir(fullPath), Err: err}
	}
	if err := afero.WriteFile(s.fs, fullPath, req.Data, 0644); err != nil {
		return nil, &ErrFile{Op: "write", Path: fullPath, Err: err}
	}

	su := &model.SourceUnit{
		BatchID:   &batchID,
		Name:      filepath.Base(req.Filename),
		Digest:    digest,
		Size:      int64(len(req.Data)),
		FsPath:    fsPath,
		CreatedAt: time.Now().UTC(),
	}
	suID, err := s.store.InsertSourceUnit(ctx, su)
	if err != nil {
		return nil, &ErrDatabase{Op: "insert source_unit", Err: err}
	}

	work := &model.Work{
		SourceUnitID: suID,
		Stage:        model.WorkStageScan,
		Status:       model.WorkStatusQueued,
		Attempt:      0,
		AvailableAt:  time.Now().UTC(),
	}
	workID, err := s.store.InsertWork(ctx, work)
	if err != nil {
		return nil, &ErrDatabase{Op: "insert work", Err: err}
	}

	return &IngestResult{
		SourceUnitID: suID,
		WorkID:       workID,
		Digest:       digest,
		Duplicate:    false,
	}, nil
}

// IngestBatch creates a batch and ingests multiple files.
// An empty label is replaced by a random one.
func (s *IngestService) IngestBatch(ctx context.Context, label, createdBy string, files []IngestRequest) (int64, []IngestResult, error) {
	if label == "" {
		label = uuid.NewString()
	}
	batch := &model.UploadBatch{
		Label:     label,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	batchID, err := s.store.InsertUploadBatch(ctx, batch)
	if err != nil {
		return 0, nil, &ErrDatabase{Op: "insert batch", Err: err}
	}

	var results []IngestResult
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return batchID, results, err
		}
		result, err := s.IngestFile(ctx, batchID, file)
		if err != nil {
			return batchID, results, err
		}
		results = append(results, *result)
	}

	return batchID, results, nil
}

// IngestPaths reads the named files from the service filesystem and
// ingests them as one batch.
func (s *IngestService) IngestPaths(ctx context.Context, label, createdBy string, paths []string) (int64, []IngestResult, error) {
	var files []IngestRequest
	for _, path := range paths {
		data, err := afero.ReadFile(s.fs, path)
		if err != nil {
			return 0, nil, &ErrFile{Op: "read", Path: path, Err: err}
		}
		files = append(files, IngestRequest{Filename: path, Data: data})
	}
	return s.IngestBatch(ctx, label, createdBy, files)
}

// storedFilename generates the stored filename: first 16 digest characters, then the original extension.
// Example: 3f2a9c0d11be4e57.asn
func storedFilename(digest, filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".asn"
	}
	return digest[:16] + ext
}
