// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mdhender/asnlex"
	"github.com/mdhender/asnlex/model"
	"github.com/mdhender/asnlex/pipelines/stages"
	store "github.com/mdhender/asnlex/stores/sqlite"
	"github.com/spf13/afero"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	sqlStore, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { sqlStore.Close() })
	return sqlStore
}

// insertSourceUnit adds a source unit and a queued scan job for it.
func insertSourceUnit(t *testing.T, sqlStore *store.SQLiteStore, batchID int64, name, digest string) int64 {
	t.Helper()
	ctx := context.Background()
	suID, err := sqlStore.InsertSourceUnit(ctx, &model.SourceUnit{
		BatchID:   &batchID,
		Name:      name,
		Digest:    digest,
		Size:      1,
		FsPath:    "batches/1/" + name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert source unit %s: %v", name, err)
	}
	_, err = sqlStore.InsertWork(ctx, &model.Work{
		SourceUnitID: suID,
		Stage:        model.WorkStageScan,
		Status:       model.WorkStatusQueued,
		AvailableAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert work %s: %v", name, err)
	}
	return suID
}

func insertBatch(t *testing.T, sqlStore *store.SQLiteStore) int64 {
	t.Helper()
	batchID, err := sqlStore.InsertUploadBatch(context.Background(), &model.UploadBatch{
		Label:     "test",
		CreatedBy: "test",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert batch: %v", err)
	}
	return batchID
}

func TestWorkerService_ClaimJob_AtomicLocking(t *testing.T) {
	ctx := context.Background()
	sqlStore := newTestStore(t)
	batchID := insertBatch(t, sqlStore)
	insertSourceUnit(t, sqlStore, batchID, "test.asn", "abc123")

	const numWorkers = 10
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	claimedCount := 0
	var mu sync.Mutex

	for i := 0; i < numWorkers; i++ {
		workerID := i
		go func() {
			defer wg.Done()
			work, err := sqlStore.ClaimWork(ctx, model.WorkStageScan, "worker-"+string(rune('A'+workerID)))
			if err != nil {
				t.Errorf("worker %d: claim error: %v", workerID, err)
				return
			}
			if work != nil {
				mu.Lock()
				claimedCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if claimedCount != 1 {
		t.Errorf("expected exactly 1 worker to claim the job, got %d", claimedCount)
	}
}

func TestWorkerService_ClaimJob_ReturnsNilWhenNoWork(t *testing.T) {
	sqlStore := newTestStore(t)

	work, err := sqlStore.ClaimWork(context.Background(), model.WorkStageScan, "test-worker")
	if err != nil {
		t.Fatalf("claim work: %v", err)
	}
	if work != nil {
		t.Errorf("expected nil work when no jobs available, got %+v", work)
	}
}

func TestResetFailedWork_ResetsFailedJobs(t *testing.T) {
	ctx := context.Background()
	sqlStore := newTestStore(t)
	batchID := insertBatch(t, sqlStore)
	insertSourceUnit(t, sqlStore, batchID, "file1.asn", "hash1")
	insertSourceUnit(t, sqlStore, batchID, "file2.asn", "hash2")

	for i := 0; i < 2; i++ {
		work, err := sqlStore.ClaimWork(ctx, model.WorkStageScan, "test-worker")
		if err != nil || work == nil {
			t.Fatalf("claim %d: work %v, err %v", i, work, err)
		}
		if err := sqlStore.FinishWork(ctx, work.ID, model.WorkStatusFailed, "UNTERMINATED_STRING", "boom"); err != nil {
			t.Fatalf("finish %d: %v", i, err)
		}
	}

	failed, err := sqlStore.GetFailedWork(ctx, model.WorkStageScan)
	if err != nil {
		t.Fatalf("get failed work: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed jobs, got %d", len(failed))
	}
	if failed[0].ErrorCode == nil || *failed[0].ErrorCode != "UNTERMINATED_STRING" {
		t.Errorf("expected error code UNTERMINATED_STRING, got %v", failed[0].ErrorCode)
	}

	count, err := sqlStore.ResetFailedWork(ctx, model.WorkStageScan)
	if err != nil {
		t.Fatalf("reset failed work: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 jobs reset, got %d", count)
	}

	work, err := sqlStore.ClaimWork(ctx, model.WorkStageScan, "test-worker")
	if err != nil {
		t.Fatalf("claim after reset: %v", err)
	}
	if work == nil {
		t.Fatal("expected a job to be claimable after reset")
	}
	if work.Attempt != 2 {
		t.Errorf("expected attempt 2 after reset, got %d", work.Attempt)
	}

	summary, err := sqlStore.GetWorkSummaryByBatch(ctx, batchID)
	if err != nil {
		t.Fatalf("work summary: %v", err)
	}
	want := map[string]map[string]int{
		model.WorkStageScan: {model.WorkStatusQueued: 1, model.WorkStatusRunning: 1},
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

// ingest runs the ingest service against the shared store and filesystem.
func ingest(t *testing.T, sqlStore *store.SQLiteStore, fs afero.Fs, files map[string]string) map[string]int64 {
	t.Helper()
	svc := stages.NewIngestService(sqlStore, "/data")
	svc.SetFS(fs)

	var reqs []stages.IngestRequest
	var names []string
	for name, text := range files {
		names = append(names, name)
		reqs = append(reqs, stages.IngestRequest{Filename: name, Data: []byte(text)})
	}
	_, results, err := svc.IngestBatch(context.Background(), "test", "test", reqs)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	ids := make(map[string]int64)
	for i, r := range results {
		ids[names[i]] = r.SourceUnitID
	}
	return ids
}

func TestWorkerService_ProcessJob_Scan(t *testing.T) {
	ctx := context.Background()
	sqlStore := newTestStore(t)
	fs := afero.NewMemMapFs()

	input := "M DEFINITIONS ::= BEGIN\n" +
		"  s UTF8String ::= \"hello\"\"world\"\n" +
		"  o OBJECT IDENTIFIER ::= \"/ISO/Registration-Authority\"\n" +
		"  bad- INTEGER ::= 01\n" +
		"END\n"
	ids := ingest(t, sqlStore, fs, map[string]string{"m.asn": input})

	worker := stages.NewWorkerService(sqlStore, "/data", "test-worker")
	worker.SetFS(fs)

	processed, err := worker.ProcessJob(ctx, model.WorkStageScan)
	if err != nil {
		t.Fatalf("process job: %v", err)
	}
	if !processed {
		t.Fatal("expected a job to be processed")
	}

	processed, err = worker.ProcessJob(ctx, model.WorkStageScan)
	if err != nil || processed {
		t.Fatalf("expected empty queue, got processed=%v err=%v", processed, err)
	}

	scan, err := sqlStore.GetLatestScan(ctx, ids["m.asn"])
	if err != nil {
		t.Fatalf("get latest scan: %v", err)
	}
	if scan == nil {
		t.Fatal("expected a stored scan")
	}
	if scan.FatalCode != "" {
		t.Errorf("expected no fatal code, got %q", scan.FatalCode)
	}
	if scan.LiteralCount != 2 {
		t.Errorf("expected 2 literals, got %d", scan.LiteralCount)
	}
	if scan.DiagnosticCount != 2 {
		t.Errorf("expected 2 diagnostics, got %d", scan.DiagnosticCount)
	}

	diags, err := sqlStore.ListDiagnostics(ctx, scan.ID)
	if err != nil {
		t.Fatalf("list diagnostics: %v", err)
	}
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
		if d.Severity != "error" {
			t.Errorf("diagnostic %d: expected severity 'error', got %q", d.Seq, d.Severity)
		}
	}
	wantCodes := []string{asnlex.ErrCodeInvalidIdentifier, asnlex.ErrCodeMalformedNumber}
	if diff := cmp.Diff(wantCodes, codes); diff != "" {
		t.Errorf("diagnostic codes mismatch (-want +got):\n%s", diff)
	}
	if diags[0].Span.Line != 4 || diags[0].Span.Column != 6 {
		t.Errorf("expected first diagnostic at 4:6, got %d:%d", diags[0].Span.Line, diags[0].Span.Column)
	}

	lits, err := sqlStore.ListLiterals(ctx, scan.ID)
	if err != nil {
		t.Fatalf("list literals: %v", err)
	}
	type row struct {
		Handle int
		Raw    string
		Value  string
		OidIri string
	}
	var got []row
	for _, lit := range lits {
		got = append(got, row{lit.Handle, lit.Raw, lit.Value, lit.OidIri})
	}
	want := []row{
		{1, `"hello""world"`, `hello"world`, ""},
		{2, `"/ISO/Registration-Authority"`, "/ISO/Registration-Authority", "/ISO/Registration-Authority"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("literals mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkerService_ProcessJob_FatalScan(t *testing.T) {
	ctx := context.Background()
	sqlStore := newTestStore(t)
	fs := afero.NewMemMapFs()

	ids := ingest(t, sqlStore, fs, map[string]string{"broken.asn": "A ::= \"never closed\n"})

	worker := stages.NewWorkerService(sqlStore, "/data", "test-worker")
	worker.SetFS(fs)

	processed, err := worker.ProcessJob(ctx, model.WorkStageScan)
	if !processed {
		t.Fatal("expected a job to be processed")
	}
	var fatal *stages.ErrScanFatal
	if !errors.As(err, &fatal) {
		t.Fatalf("expected *ErrScanFatal, got %T %v", err, err)
	}
	if !errors.Is(err, asnlex.ErrUnterminatedString) {
		t.Errorf("expected ErrUnterminatedString in chain, got %v", err)
	}
	if got := stages.ErrorCode(err); got != asnlex.ErrCodeUnterminatedString {
		t.Errorf("expected code %q, got %q", asnlex.ErrCodeUnterminatedString, got)
	}

	// the partial scan is kept
	scan, err := sqlStore.GetLatestScan(ctx, ids["broken.asn"])
	if err != nil || scan == nil {
		t.Fatalf("get latest scan: scan %v, err %v", scan, err)
	}
	if scan.ID != fatal.ScanID {
		t.Errorf("expected scan id %d, got %d", fatal.ScanID, scan.ID)
	}
	if scan.FatalCode != asnlex.ErrCodeUnterminatedString {
		t.Errorf("expected fatal code %q, got %q", asnlex.ErrCodeUnterminatedString, scan.FatalCode)
	}
	if scan.TokenCount != 2 {
		t.Errorf("expected 2 tokens before the error, got %d", scan.TokenCount)
	}

	failed, err := sqlStore.GetFailedWork(ctx, model.WorkStageScan)
	if err != nil {
		t.Fatalf("get failed work: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed job, got %d", len(failed))
	}
	if failed[0].ErrorCode == nil || *failed[0].ErrorCode != asnlex.ErrCodeUnterminatedString {
		t.Errorf("expected job error code %q, got %v", asnlex.ErrCodeUnterminatedString, failed[0].ErrorCode)
	}
}

func TestWorkerService_ProcessJob_MissingFile(t *testing.T) {
	ctx := context.Background()
	sqlStore := newTestStore(t)
	batchID := insertBatch(t, sqlStore)
	insertSourceUnit(t, sqlStore, batchID, "gone.asn", "hash-gone")

	worker := stages.NewWorkerService(sqlStore, "/data", "test-worker")
	worker.SetFS(afero.NewMemMapFs())

	processed, err := worker.ProcessJob(ctx, model.WorkStageScan)
	if !processed {
		t.Fatal("expected a job to be processed")
	}
	if got := stages.ErrorCode(err); got != stages.ErrCodeFile {
		t.Errorf("expected code %q, got %q (%v)", stages.ErrCodeFile, got, err)
	}
}

func TestWorkerService_StrictIdentifiers(t *testing.T) {
	ctx := context.Background()
	sqlStore := newTestStore(t)
	fs := afero.NewMemMapFs()

	ids := ingest(t, sqlStore, fs, map[string]string{"u.asn": "caf\u00e9 INTEGER ::= 1\n"})

	worker := stages.NewWorkerService(sqlStore, "/data", "test-worker")
	worker.SetFS(fs)
	worker.SetLexerOptions(asnlex.WithASCIIIdentifiers(true))

	if _, err := worker.ProcessJob(ctx, model.WorkStageScan); err != nil {
		t.Fatalf("process job: %v", err)
	}
	scan, err := sqlStore.GetLatestScan(ctx, ids["u.asn"])
	if err != nil || scan == nil {
		t.Fatalf("get latest scan: scan %v, err %v", scan, err)
	}
	if scan.DiagnosticCount != 1 {
		t.Errorf("expected 1 diagnostic under the ASCII profile, got %d", scan.DiagnosticCount)
	}
}

func TestWorkerService_Drain(t *testing.T) {
	ctx := context.Background()
	sqlStore := newTestStore(t)
	fs := afero.NewMemMapFs()

	files := make(map[string]string)
	for i := 0; i < 12; i++ {
		files[fmt.Sprintf("m%02d.asn", i)] = fmt.Sprintf("M%d DEFINITIONS ::= BEGIN v INTEGER ::= %d END\n", i, i)
	}
	files["bad.asn"] = "X ::= /* open\n"
	ingest(t, sqlStore, fs, files)

	worker := stages.NewWorkerService(sqlStore, "/data", "")
	worker.SetFS(fs)

	result, err := worker.Drain(ctx, model.WorkStageScan, 4)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if result.Processed != 13 {
		t.Errorf("expected 13 jobs processed, got %d", result.Processed)
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failed job, got %d", result.Failed)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], asnlex.ErrUnterminatedComment) {
		t.Errorf("expected one unterminated comment error, got %v", result.Errors)
	}

	stats, err := sqlStore.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Scans != 13 {
		t.Errorf("expected 13 scans, got %d", stats.Scans)
	}
	if stats.FailedWork != 1 {
		t.Errorf("expected 1 failed work item, got %d", stats.FailedWork)
	}
}

func TestWorkerService_DrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sqlStore := newTestStore(t)

	worker := stages.NewWorkerService(sqlStore, "/data", "test-worker")
	worker.SetFS(afero.NewMemMapFs())

	result, err := worker.Drain(ctx, model.WorkStageScan, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Processed != 0 {
		t.Errorf("expected no jobs processed, got %d", result.Processed)
	}
}
