package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github/itish2003/pdfqa/models"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    pdf_id TEXT,
    history TEXT
)`

const pdfsSchema = `
CREATE TABLE IF NOT EXISTS pdfs (
    pdf_id TEXT PRIMARY KEY,
    filename TEXT,
    path TEXT
)`

// SessionStore keeps conversation history per session and the registry of
// ingested PDFs.
type SessionStore struct {
	db *sql.DB
	// serialises read-modify-write of the JSON history column
	mu sync.Mutex
}

// NewSessionStore ensures the sessions and pdfs tables exist in db.
func NewSessionStore(db *sql.DB) (*SessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db is nil", models.ErrInvalidArgument)
	}
	if err := ensureSchema(db, sessionsSchema, pdfsSchema); err != nil {
		return nil, err
	}
	if err := addColumnIfMissing(db, "pdfs", "file_hash", "TEXT"); err != nil {
		return nil, err
	}
	return &SessionStore{db: db}, nil
}

func addColumnIfMissing(db *sql.DB, table, column, typ string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("%w: reading %s columns: %w", models.ErrStorage, table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name, ct  string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ct, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("%w: scanning %s columns: %w", models.ErrStorage, table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: reading %s columns: %w", models.ErrStorage, table, err)
	}
	rows.Close()

	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typ)); err != nil {
		return fmt.Errorf("%w: adding %s.%s: %w", models.ErrStorage, table, column, err)
	}
	return nil
}

// CreateSession starts an empty conversation bound to pdfID and returns its id.
func (s *SessionStore) CreateSession(ctx context.Context, pdfID string) (string, error) {
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, pdf_id, history) VALUES (?, ?, ?)`, id, pdfID, "[]"); err != nil {
		return "", fmt.Errorf("%w: creating session: %w", models.ErrStorage, err)
	}
	return id, nil
}

// GetSession returns models.ErrNotFound for an unknown id.
func (s *SessionStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var (
		sess    models.Session
		history sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT session_id, pdf_id, history FROM sessions WHERE session_id = ?`, id).
		Scan(&sess.ID, &sess.DocumentID, &history)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading session: %w", models.ErrStorage, err)
	}
	if sess.History, err = decodeHistory(history); err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetHistory returns the session's history, empty for an unknown session.
func (s *SessionStore) GetHistory(ctx context.Context, id string) ([]string, error) {
	sess, err := s.GetSession(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return sess.History, nil
}

// AppendHistory adds entries to the end of the session's history.
func (s *SessionStore) AppendHistory(ctx context.Context, id string, entries ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(append(sess.History, entries...))
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET history = ? WHERE session_id = ?`, string(raw), id); err != nil {
		return fmt.Errorf("%w: saving history: %w", models.ErrStorage, err)
	}
	return nil
}

func decodeHistory(raw sql.NullString) ([]string, error) {
	history := []string{}
	if !raw.Valid || raw.String == "" {
		return history, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &history); err != nil {
		return nil, fmt.Errorf("%w: decoding history: %w", models.ErrStorage, err)
	}
	return history, nil
}

// AddPDF registers (or re-registers) a PDF.
func (s *SessionStore) AddPDF(ctx context.Context, pdf models.PDF) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pdfs (pdf_id, filename, path, file_hash) VALUES (?, ?, ?, ?)`,
		pdf.ID, pdf.Filename, pdf.Path, pdf.FileHash); err != nil {
		return fmt.Errorf("%w: registering pdf: %w", models.ErrStorage, err)
	}
	return nil
}

// GetPDF returns models.ErrNotFound for an unregistered id.
func (s *SessionStore) GetPDF(ctx context.Context, id string) (*models.PDF, error) {
	return s.findPDF(ctx, `SELECT pdf_id, filename, path, file_hash FROM pdfs WHERE pdf_id = ?`, id)
}

// FindPDFByHash looks a PDF up by the SHA-256 of its contents.
func (s *SessionStore) FindPDFByHash(ctx context.Context, hash string) (*models.PDF, error) {
	return s.findPDF(ctx, `SELECT pdf_id, filename, path, file_hash FROM pdfs WHERE file_hash = ? LIMIT 1`, hash)
}

func (s *SessionStore) findPDF(ctx context.Context, query, arg string) (*models.PDF, error) {
	var (
		pdf  models.PDF
		hash sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&pdf.ID, &pdf.Filename, &pdf.Path, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pdf %s: %w", arg, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading pdf: %w", models.ErrStorage, err)
	}
	pdf.FileHash = hash.String
	return &pdf, nil
}
