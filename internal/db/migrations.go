package db

import "fmt"

// migrate runs all database migrations
func (db *DB) migrate() error {
	migrations := []string{
		migrationCreateDocuments,
		migrationCreateQuarantine,
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const migrationCreateDocuments = `
CREATE TABLE IF NOT EXISTS store_documents (
    namespace TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

const migrationCreateQuarantine = `
CREATE TABLE IF NOT EXISTS store_quarantine (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    namespace TEXT NOT NULL,
    body TEXT NOT NULL,
    quarantined_at TEXT NOT NULL
);
`
