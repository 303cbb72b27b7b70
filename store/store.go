// Package store persists embedding records, sessions and the PDF registry in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver

	"github/itish2003/pdfqa/models"
)

// Open opens (creating if needed) the SQLite database at path with WAL journaling and a
// busy timeout so concurrent writers queue instead of failing.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating data directory: %w", models.ErrStorage, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", models.ErrStorage, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connecting to database: %w", models.ErrStorage, err)
	}
	log.Debugf("STORE: Opened %s", path)
	return db, nil
}

func ensureSchema(db *sql.DB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: creating schema: %w", models.ErrStorage, err)
		}
	}
	return nil
}
