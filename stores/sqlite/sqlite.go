// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package store persists source units, the scan queue and scan results
// in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mdhender/asnlex/model"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version by InitDatabase.
const schemaVersion = 1

var _ model.Store = (*SQLiteStore)(nil)

// SQLiteStore is a SQLite-backed model.Store.
type SQLiteStore struct {
	db *sql.DB
}

// StoreConfig holds configuration for creating a SQLiteStore.
type StoreConfig struct {
	// Path is the database file. An empty path opens a private
	// in-memory database.
	Path string

	// InitSchema applies the schema when opening a file. The file must
	// still exist; InitDatabase creates new files.
	InitSchema bool
}

// NewSQLiteStore creates a new in-memory SQLite store with the schema loaded.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(StoreConfig{})
}

// NewSQLiteStoreWithConfig opens a store. A file database must exist and,
// unless InitSchema is set, carry the current schema version.
func NewSQLiteStoreWithConfig(cfg StoreConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		// every connection to :memory: is a different database
		db, err := open("file::memory:?_pragma=foreign_keys(1)", 1)
		if err != nil {
			return nil, err
		}
		if err := applySchema(db); err != nil {
			db.Close()
			return nil, err
		}
		return &SQLiteStore{db: db}, nil
	}

	if _, err := os.Stat(cfg.Path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("database file does not exist: %s (run init-db to create it)", cfg.Path)
	}
	db, err := open(fileDSN(cfg.Path), 0)
	if err != nil {
		return nil, err
	}
	if cfg.InitSchema {
		err = applySchema(db)
	} else {
		err = checkSchema(db, cfg.Path)
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// InitDatabase creates a database file with the schema applied.
// It refuses to touch an existing file.
func InitDatabase(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("database file already exists: %s", path)
	}
	db, err := open(fileDSN(path), 0)
	if err != nil {
		return err
	}
	defer db.Close()
	return applySchema(db)
}

// CompactDatabase merges the WAL into the database file and vacuums it,
// leaving a single file suitable for copying.
func CompactDatabase(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("database file does not exist: %s", path)
	}
	db, err := open(fileDSN(path), 1)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range []string{"PRAGMA wal_checkpoint(TRUNCATE)", "VACUUM"} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", strings.ToLower(stmt), err)
		}
	}
	return nil
}

// fileDSN sets the pragmas on every pooled connection.
func fileDSN(path string) string {
	pragmas := []string{
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(ON)",
		"busy_timeout(5000)",
	}
	return "file:" + path + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
}

// open opens and pings the database. maxConns of 0 leaves the pool unlimited.
func open(dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

func checkSchema(db *sql.DB, path string) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%s: schema version %d, want %d", path, version, schemaVersion)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats returns row counts for the domain tables.
func (s *SQLiteStore) Stats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM source_units),
			(SELECT COUNT(*) FROM scans),
			(SELECT COUNT(*) FROM diagnostics),
			(SELECT COUNT(*) FROM literals),
			(SELECT COUNT(*) FROM work WHERE status = 'failed')`,
	).Scan(&stats.SourceUnits, &stats.Scans, &stats.Diagnostics, &stats.Literals, &stats.FailedWork)
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

// tables lists every table in schema.sql.
var tables = []string{
	"upload_batches",
	"source_units",
	"work",
	"scans",
	"diagnostics",
	"literals",
}

// TableStats returns row counts for all tables.
func (s *SQLiteStore) TableStats(ctx context.Context) (map[string]int64, error) {
	selects := make([]string, len(tables))
	for i, table := range tables {
		selects[i] = fmt.Sprintf("SELECT '%s', COUNT(*) FROM %s", table, table)
	}
	rows, err := s.db.QueryContext(ctx, strings.Join(selects, " UNION ALL "))
	if err != nil {
		return nil, fmt.Errorf("table stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int64, len(tables))
	for rows.Next() {
		var table string
		var count int64
		if err := rows.Scan(&table, &count); err != nil {
			return nil, fmt.Errorf("table stats: %w", err)
		}
		stats[table] = count
	}
	return stats, rows.Err()
}

// QueryResult holds the result of a raw SQL query.
type QueryResult struct {
	Columns []string
	Rows    [][]string
	Error   string
}

// ExecRawQuery runs an ad hoc query for the query command and renders every
// value as text. Errors are reported in the result.
func (s *SQLiteStore) ExecRawQuery(ctx context.Context, query string) *QueryResult {
	result := &QueryResult{}
	if err := s.execRawQuery(ctx, query, result); err != nil {
		result.Error = err.Error()
	}
	return result
}

func (s *SQLiteStore) execRawQuery(ctx context.Context, query string, result *QueryResult) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	if result.Columns, err = rows.Columns(); err != nil {
		return err
	}
	values := make([]any, len(result.Columns))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	return rows.Err()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

// timestamp is the stored form of a time. Stored times sort as text.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt64Ptr(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
