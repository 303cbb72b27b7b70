package models

type UploadResponse struct {
	Status  string `json:"status"`
	PDFID   string `json:"pdf_id"`
	Chunks  int    `json:"chunks"`
	Message string `json:"message"`
}

// SourceDocument is a retrieved chunk returned alongside an answer.
type SourceDocument struct {
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

type AskResponse struct {
	Answer    string           `json:"answer"`
	SessionID string           `json:"session_id"`
	Sources   []SourceDocument `json:"sources,omitempty"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

type SessionResponse struct {
	SessionID string   `json:"session_id"`
	History   []string `json:"history"`
}

type ChunksResponse struct {
	Count  int      `json:"count"`
	Chunks []string `json:"chunks"`
}

type EmbeddingRow struct {
	ChunkIndex int       `json:"chunk_index"`
	Dim        int       `json:"dim"`
	Sample     []float32 `json:"sample"`
}

type EmbeddingsResponse struct {
	Count int            `json:"count"`
	Rows  []EmbeddingRow `json:"rows"`
}

type RetrieveResponse struct {
	Query   string           `json:"query"`
	Results []SourceDocument `json:"results"`
}

type ModelsResponse struct {
	Models []string `json:"models"`
}
