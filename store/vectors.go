package store

import (
	"context"
	"database/sql"
	"fmt"

	"github/itish2003/pdfqa/models"
)

const embeddingsSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
    id INTEGER PRIMARY KEY,
    pdf_id TEXT,
    chunk_index INTEGER,
    text TEXT,
    dim INTEGER,
    embedding BLOB
)`

const embeddingsIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_embeddings_pdf_chunk ON embeddings(pdf_id, chunk_index)`

// VectorStore is the append-only store of embedding records. Records are keyed by
// (pdf_id, chunk_index) and never updated or deleted.
type VectorStore struct {
	db *sql.DB
}

// NewVectorStore ensures the embeddings table exists in db.
func NewVectorStore(db *sql.DB) (*VectorStore, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db is nil", models.ErrInvalidArgument)
	}
	if err := ensureSchema(db, embeddingsSchema, embeddingsIndex); err != nil {
		return nil, err
	}
	return &VectorStore{db: db}, nil
}

// AddEmbeddings stores one record per (chunk, embedding) pair, assigning chunk_index
// positionally. The whole call is one transaction: either every record becomes
// visible or none does. The unique (pdf_id, chunk_index) index rejects a second
// batch for the same document.
func (s *VectorStore) AddEmbeddings(ctx context.Context, documentID string, chunks []string, embeddings [][]float32) error {
	if err := validateBatch(documentID, chunks, embeddings); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", models.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO embeddings (pdf_id, chunk_index, text, dim, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: preparing insert: %w", models.ErrStorage, err)
	}
	defer stmt.Close()

	for i, text := range chunks {
		vec := embeddings[i]
		if _, err := stmt.ExecContext(ctx, documentID, i, text, len(vec), EncodeVector(vec)); err != nil {
			return fmt.Errorf("%w: inserting chunk %d of %s: %w", models.ErrStorage, i, documentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing %d records for %s: %w", models.ErrStorage, len(chunks), documentID, err)
	}
	return nil
}

func validateBatch(documentID string, chunks []string, embeddings [][]float32) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is empty", models.ErrInvalidArgument)
	}
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks but %d embeddings", models.ErrInvalidArgument, len(chunks), len(embeddings))
	}
	for i := range chunks {
		if chunks[i] == "" {
			return fmt.Errorf("%w: chunk %d is empty", models.ErrInvalidArgument, i)
		}
		if len(embeddings[i]) == 0 {
			return fmt.Errorf("%w: embedding %d is empty", models.ErrInvalidArgument, i)
		}
		if len(embeddings[i]) != len(embeddings[0]) {
			return fmt.Errorf("%w: embedding %d has dimension %d, want %d", models.ErrInvalidArgument, i, len(embeddings[i]), len(embeddings[0]))
		}
	}
	return nil
}

// GetAllEmbeddings returns every record of a document in no particular order.
// An unknown document yields an empty slice.
func (s *VectorStore) GetAllEmbeddings(ctx context.Context, documentID string) ([]models.EmbeddingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, chunk_index, text, dim, embedding FROM embeddings WHERE pdf_id = ?`, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying embeddings: %w", models.ErrStorage, err)
	}
	defer rows.Close()

	records := []models.EmbeddingRecord{}
	for rows.Next() {
		var (
			rec  models.EmbeddingRecord
			blob []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ChunkIndex, &rec.Text, &rec.Dimension, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning embedding row: %w", models.ErrStorage, err)
		}
		rec.DocumentID = documentID
		if rec.Vector, err = DecodeVector(blob, rec.Dimension); err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading embedding rows: %w", models.ErrStorage, err)
	}
	return records, nil
}

// GetTexts returns a document's chunk texts ordered by chunk_index.
func (s *VectorStore) GetTexts(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT text FROM embeddings WHERE pdf_id = ? ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying texts: %w", models.ErrStorage, err)
	}
	defer rows.Close()

	texts := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("%w: scanning text row: %w", models.ErrStorage, err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading text rows: %w", models.ErrStorage, err)
	}
	return texts, nil
}

// CountChunks returns how many records a document has.
func (s *VectorStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE pdf_id = ?`, documentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %w", models.ErrStorage, err)
	}
	return n, nil
}
