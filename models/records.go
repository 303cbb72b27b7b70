package models

// EmbeddingRecord is one persisted chunk of a document together with its vector.
type EmbeddingRecord struct {
	ID         int64     `json:"id"`
	DocumentID string    `json:"pdf_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Dimension  int       `json:"dim"`
	Vector     []float32 `json:"-"`
}

// ScoredRecord pairs a record with its cosine similarity to a query.
type ScoredRecord struct {
	Record EmbeddingRecord
	Score  float64
}

// PDF is the registry entry for an uploaded or watched file.
type PDF struct {
	ID       string `json:"pdf_id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	FileHash string `json:"file_hash,omitempty"`
}

// Session binds a conversation to a document. History alternates
// "User: ..." and "AI: ..." lines.
type Session struct {
	ID         string   `json:"session_id"`
	DocumentID string   `json:"pdf_id"`
	History    []string `json:"history"`
}
