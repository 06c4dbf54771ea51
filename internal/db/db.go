package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection and stores whole store documents
// in the store_documents table. It satisfies store.Backend.
type DB struct {
	*sql.DB
}

// DefaultDBPath returns the database path inside dataDir
func DefaultDBPath(dataDir string) string {
	return filepath.Join(dataDir, "promptpicker.db")
}

// Open opens or creates the SQLite database
func Open(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Several windows open this file at once; wait for the writer instead of
	// failing with SQLITE_BUSY.
	sqlDB, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db := &DB{DB: sqlDB}

	// Run migrations
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Read returns the body stored for namespace, nil if there is none
func (db *DB) Read(ctx context.Context, namespace string) ([]byte, error) {
	var body string
	err := db.QueryRowContext(ctx,
		`SELECT body FROM store_documents WHERE namespace = ?`, namespace,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

// Write upserts the body for namespace
func (db *DB) Write(ctx context.Context, namespace string, body []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO store_documents (namespace, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at`,
		namespace, string(body), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Quarantine copies the row into store_quarantine and removes it
func (db *DB) Quarantine(ctx context.Context, namespace string) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO store_quarantine (namespace, body, quarantined_at)
		SELECT namespace, body, ? FROM store_documents WHERE namespace = ?`,
		now, namespace,
	)
	if err != nil {
		return "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM store_documents WHERE namespace = ?`, namespace); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return fmt.Sprintf("store_quarantine#%d", id), nil
}

// UpdatedAt returns when namespace was last written, zero if never
func (db *DB) UpdatedAt(ctx context.Context, namespace string) (time.Time, error) {
	var ts string
	err := db.QueryRowContext(ctx,
		`SELECT updated_at FROM store_documents WHERE namespace = ?`, namespace,
	).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, ts)
}
