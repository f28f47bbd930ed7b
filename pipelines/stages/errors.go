// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"fmt"

	"github.com/mdhender/asnlex"
)

// ErrFile is returned when file I/O operations fail.
type ErrFile struct {
	Op   string // mkdir, write, read
	Path string
	Err  error
}

func (e *ErrFile) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ErrFile) Unwrap() error {
	return e.Err
}

// ErrDatabase is returned when database operations fail.
type ErrDatabase struct {
	Op  string
	Err error
}

func (e *ErrDatabase) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ErrDatabase) Unwrap() error {
	return e.Err
}

// ErrScanFatal is returned when tokenizing stopped on a fatal lexical error.
// The scan up to the error has been stored.
type ErrScanFatal struct {
	Name   string
	ScanID int64
	Err    error
}

func (e *ErrScanFatal) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Name, e.Err)
}

func (e *ErrScanFatal) Unwrap() error {
	return e.Err
}

// Error code constants for database storage.
const (
	ErrCodeFile     = "FILE"
	ErrCodeDatabase = "DATABASE"
	ErrCodeUnknown  = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
// Fatal lexical errors map to the lexer's own codes.
func ErrorCode(err error) string {
	switch e := err.(type) {
	case *ErrFile:
		return ErrCodeFile
	case *ErrDatabase:
		return ErrCodeDatabase
	case *ErrScanFatal:
		return asnlex.ErrorCode(e.Err)
	default:
		return ErrCodeUnknown
	}
}
