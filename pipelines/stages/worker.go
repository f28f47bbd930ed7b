// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mdhender/asnlex"
	"github.com/mdhender/asnlex/model"
	"github.com/mdhender/asnlex/oidiri"
	"github.com/spf13/afero"
)

// WorkerService claims and executes pipeline jobs.
type WorkerService struct {
	store    WorkerStore
	dataDir  string
	workerID string
	fs       afero.Fs
	logger   *slog.Logger
	options  []asnlex.Option
}

// WorkerStore defines the store operations needed by WorkerService.
type WorkerStore interface {
	ClaimWork(ctx context.Context, stage, workerID string) (*model.Work, error)
	FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error
	GetSourceUnitByID(ctx context.Context, id int64) (*model.SourceUnit, error)

	// For the scan stage - persist tokenizer output
	InsertScan(ctx context.Context, scan *model.Scan) (int64, error)
}

// NewWorkerService creates a new WorkerService.
func NewWorkerService(store WorkerStore, dataDir, workerID string) *WorkerService {
	if workerID == "" {
		hostname, _ := os.Hostname()
		workerID = fmt.Sprintf("%s:%d", hostname, os.Getpid())
	}
	return &WorkerService{
		store:    store,
		dataDir:  dataDir,
		workerID: workerID,
		fs:       afero.NewOsFs(),
	}
}

// SetFS sets the filesystem for testing.
func (w *WorkerService) SetFS(fs afero.Fs) {
	w.fs = fs
}

// SetLogger sets the logger passed to the lexer. A nil logger disables logging.
func (w *WorkerService) SetLogger(logger *slog.Logger) {
	w.logger = logger
}

// SetLexerOptions sets extra options for every scan, e.g. asnlex.WithASCIIIdentifiers.
func (w *WorkerService) SetLexerOptions(options ...asnlex.Option) {
	w.options = options
}

// WorkResult represents the outcome of executing a job.
type WorkResult struct {
	Success      bool
	ErrorCode    string
	ErrorMessage string
}

// ClaimJob atomically claims a queued job for the given stage.
// Returns nil if no work is available.
func (w *WorkerService) ClaimJob(ctx context.Context, stage string) (*model.Work, error) {
	return w.store.ClaimWork(ctx, stage, w.workerID)
}

// ExecuteScan tokenizes a source unit and stores the tokens' summary, the
// diagnostics and the ambiguous literals.
//
// Nothing is known about governing types here, so every literal is stored
// with its character string value. When its contents are also a valid
// OID-IRI, that form is stored alongside.
func (w *WorkerService) ExecuteScan(ctx context.Context, job *model.Work, su *model.SourceUnit) (*model.Scan, error) {
	fullPath := filepath.Join(w.dataDir, su.FsPath)
	data, err := afero.ReadFile(w.fs, fullPath)
	if err != nil {
		return nil, &ErrFile{Op: "read", Path: fullPath, Err: err}
	}

	options := append([]asnlex.Option{asnlex.WithLogger(w.logger)}, w.options...)
	started := time.Now().UTC()
	res, scanErr := asnlex.Tokenize(ctx, su.Name, data, options...)
	if res == nil {
		// only a bad option gets here
		return nil, scanErr
	}

	scan := &model.Scan{
		SourceUnitID:    su.ID,
		TokenCount:      len(res.Tokens),
		DiagnosticCount: len(res.Diagnostics),
		LiteralCount:    res.Literals.Len(),
		StartedAt:       started,
	}
	if res.Source != nil {
		scan.HasBOM = res.Source.HasBOM()
	}
	if res.Fatal != nil {
		scan.FatalCode = asnlex.ErrorCode(res.Fatal)
		scan.FatalMessage = res.Fatal.Error()
	}
	for i, d := range res.Diagnostics {
		scan.Diagnostics = append(scan.Diagnostics, &model.Diagnostic{
			Seq:      i + 1,
			Code:     d.Code,
			Severity: strings.ToLower(d.Severity.String()),
			Message:  d.Message,
			Fatal:    d.Fatal,
			Span:     modelSpan(d.Span),
		})
	}
	for _, tok := range res.Tokens {
		if tok.IsNot(asnlex.CharacterOrOidIriLiteral) {
			continue
		}
		lit, err := resolveLiteral(res.Literals, tok)
		if err != nil {
			return nil, err
		}
		scan.Literals = append(scan.Literals, lit)
	}
	scan.FinishedAt = time.Now().UTC()

	scanID, err := w.store.InsertScan(ctx, scan)
	if err != nil {
		return nil, &ErrDatabase{Op: "insert scan", Err: err}
	}
	if res.Fatal != nil {
		return scan, &ErrScanFatal{Name: su.Name, ScanID: scanID, Err: res.Fatal}
	}
	return scan, nil
}

func resolveLiteral(tbl *asnlex.LiteralTable, tok *asnlex.Token) (*model.Literal, error) {
	v, err := tbl.ResolveToken(tok, false)
	if err != nil {
		return nil, fmt.Errorf("resolve literal %d: %w", tok.Handle, err)
	}
	lit := &model.Literal{
		Handle: int(tok.Handle),
		Raw:    tok.Text,
		Span:   modelSpan(v.Span),
		Value:  v.String,
	}
	if iri, err := oidiri.Parse(asnlex.Contents(tok.Text)); err == nil {
		lit.OidIri = iri.String()
	}
	return lit, nil
}

func modelSpan(span asnlex.Span) model.Span {
	return model.Span{Start: span.Start, End: span.End, Line: span.Line, Column: span.Column}
}

// FinishJob marks a job as completed (ok or failed) based on the result.
func (w *WorkerService) FinishJob(ctx context.Context, job *model.Work, result WorkResult) error {
	status := model.WorkStatusOk
	errorCode := ""
	errorMsg := ""

	if !result.Success {
		status = model.WorkStatusFailed
		errorCode = result.ErrorCode
		errorMsg = result.ErrorMessage
	}

	return w.store.FinishWork(ctx, job.ID, status, errorCode, errorMsg)
}

// GetSourceUnit retrieves the source unit associated with a job.
func (w *WorkerService) GetSourceUnit(ctx context.Context, job *model.Work) (*model.SourceUnit, error) {
	return w.store.GetSourceUnitByID(ctx, job.SourceUnitID)
}

// ProcessJob claims, executes, and finishes a single job for the given stage.
// Returns (jobProcessed, error). jobProcessed is true if a job was claimed.
func (w *WorkerService) ProcessJob(ctx context.Context, stage string) (bool, error) {
	job, err := w.ClaimJob(ctx, stage)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	su, err := w.GetSourceUnit(ctx, job)
	if err != nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: fmt.Sprintf("get source unit: %v", err),
		})
		return true, fmt.Errorf("get source unit: %w", err)
	}
	if su == nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: "source unit not found",
		})
		return true, fmt.Errorf("source unit %d not found", job.SourceUnitID)
	}

	var execErr error
	switch stage {
	case model.WorkStageScan:
		_, execErr = w.ExecuteScan(ctx, job, su)
	default:
		execErr = fmt.Errorf("unknown stage: %s", stage)
	}

	if execErr != nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrorCode(execErr),
			ErrorMessage: execErr.Error(),
		})
		return true, execErr
	}

	if err := w.FinishJob(ctx, job, WorkResult{Success: true}); err != nil {
		return true, fmt.Errorf("finish job: %w", err)
	}

	return true, nil
}

// DrainResult summarizes a Drain run.
type DrainResult struct {
	Processed int
	Failed    int
	Errors    []error // one per failed job, in completion order
	Elapsed   time.Duration
}

// Drain runs up to workers goroutines that process jobs for stage until the
// queue is empty or ctx is cancelled. Failed jobs are recorded in the
// result and do not stop the other workers. A store error that prevents
// claiming is returned.
func (w *WorkerService) Drain(ctx context.Context, stage string, workers int) (*DrainResult, error) {
	if workers < 1 {
		workers = 1
	}
	started := time.Now()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		result   DrainResult
		claimErr error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				processed, err := w.ProcessJob(ctx, stage)
				if !processed {
					if err != nil {
						mu.Lock()
						claimErr = errors.Join(claimErr, err)
						mu.Unlock()
					}
					return
				}
				mu.Lock()
				result.Processed++
				if err != nil {
					result.Failed++
					result.Errors = append(result.Errors, err)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	result.Elapsed = time.Since(started)
	if claimErr != nil {
		return &result, claimErr
	}
	return &result, ctx.Err()
}
