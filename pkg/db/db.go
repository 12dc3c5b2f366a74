package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrTableNotFound is wrapped by StoreError when a load targets a missing table.
var ErrTableNotFound = errors.New("table does not exist")

// StoreError wraps every failure of the relational store.
type StoreError struct {
	Op    string // save, load
	Path  string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s (table %s): %v", e.Op, e.Path, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// openDB opens a SQLite database at the given path
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sql.Open is lazy; surface a bad path here rather than on first query.
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close() // Close error less important than ping error
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return sqlDB, nil
}

// quoteIdent quotes a table name for use in SQL text.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// tableExists checks sqlite_master for a table called name.
func tableExists(sqlDB *sql.DB, name string) (bool, error) {
	var tableName string
	err := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&tableName)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check schema: %w", err)
	}
	return true, nil
}
