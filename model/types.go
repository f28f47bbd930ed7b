// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"time"
)

// UploadBatch groups source units submitted together.
type UploadBatch struct {
	ID        int64     `json:"id"        db:"id"`
	Label     string    `json:"label"     db:"label"` // e.g., "rfc5912"
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// SourceUnit is one ASN.1 source file, stored once per content digest.
type SourceUnit struct {
	ID        int64     `json:"id"        db:"id"`
	BatchID   *int64    `json:"batchId"   db:"batch_id"`
	Name      string    `json:"name"      db:"name"`   // original filename
	Digest    string    `json:"digest"    db:"digest"` // hex BLAKE2b-256 of the bytes
	Size      int64     `json:"size"      db:"size"`
	FsPath    string    `json:"fsPath"    db:"fs_path"` // relative to the data directory
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Work stages.
const (
	WorkStageScan = "scan"
)

// Work statuses.
const (
	WorkStatusQueued  = "queued"
	WorkStatusRunning = "running"
	WorkStatusOk      = "ok"
	WorkStatusFailed  = "failed"
)

// Work is a queued pipeline job for one source unit.
type Work struct {
	ID           int64      `json:"id"                     db:"id"`
	SourceUnitID int64      `json:"sourceUnitId"           db:"source_unit_id"`
	Stage        string     `json:"stage"                  db:"stage"`
	Status       string     `json:"status"                 db:"status"`
	Attempt      int        `json:"attempt"                db:"attempt"`
	AvailableAt  time.Time  `json:"availableAt"            db:"available_at"`
	LockedBy     *string    `json:"lockedBy,omitempty"     db:"locked_by"`
	LockedAt     *time.Time `json:"lockedAt,omitempty"     db:"locked_at"`
	StartedAt    *time.Time `json:"startedAt,omitempty"    db:"started_at"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"   db:"finished_at"`
	ErrorCode    *string    `json:"errorCode,omitempty"    db:"error_code"`
	ErrorMessage *string    `json:"errorMessage,omitempty" db:"error_message"`
}

// Scan is the outcome of tokenizing a source unit.
type Scan struct {
	ID              int64     `json:"id"                     db:"id"`
	SourceUnitID    int64     `json:"sourceUnitId"           db:"source_unit_id"`
	HasBOM          bool      `json:"hasBom"                 db:"has_bom"`
	TokenCount      int       `json:"tokenCount"             db:"token_count"`
	DiagnosticCount int       `json:"diagnosticCount"        db:"diagnostic_count"`
	LiteralCount    int       `json:"literalCount"           db:"literal_count"`
	FatalCode       string    `json:"fatalCode,omitempty"    db:"fatal_code"`
	FatalMessage    string    `json:"fatalMessage,omitempty" db:"fatal_message"`
	StartedAt       time.Time `json:"startedAt"              db:"started_at"`
	FinishedAt      time.Time `json:"finishedAt"             db:"finished_at"`

	Diagnostics []*Diagnostic `json:"diagnostics,omitempty" db:"-"`
	Literals    []*Literal    `json:"literals,omitempty"    db:"-"`
}

// Span locates a diagnostic or literal in the source text.
type Span struct {
	Start  int `json:"start"  db:"start_offset"` // byte offset
	End    int `json:"end"    db:"end_offset"`   // exclusive
	Line   int `json:"line"   db:"line"`
	Column int `json:"column" db:"col"`
}

// Diagnostic is a persisted lexical diagnostic.
type Diagnostic struct {
	ID       int64  `json:"id"       db:"id"`
	ScanID   int64  `json:"scanId"   db:"scan_id"`
	Seq      int    `json:"seq"      db:"seq"` // 1-based, in report order
	Code     string `json:"code"     db:"code"` // e.g., "INVALID_IDENTIFIER"
	Severity string `json:"severity" db:"severity"`
	Message  string `json:"message"  db:"message"`
	Fatal    bool   `json:"fatal"    db:"fatal"`
	Span     Span   `json:"span"     db:"-"`
}

// Literal is a persisted ambiguous literal and its default resolution.
type Literal struct {
	ID     int64  `json:"id"     db:"id"`
	ScanID int64  `json:"scanId" db:"scan_id"`
	Handle int    `json:"handle" db:"handle"`
	Raw    string `json:"raw"    db:"raw"` // quotes included
	Span   Span   `json:"span"   db:"-"`

	// Value is the character string value, the resolution used
	// when nothing is known about the governing type.
	Value string `json:"value" db:"value"`
	// OidIri is set when the contents are also a valid OID-IRI.
	OidIri string `json:"oidIri,omitempty" db:"oid_iri"`
}
