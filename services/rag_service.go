package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github/itish2003/pdfqa/chunker"
	"github/itish2003/pdfqa/config"
	"github/itish2003/pdfqa/models"
	"github/itish2003/pdfqa/search"
)

const (
	answerMaxTokens       = 2048
	partialSummaryTokens  = 1024
	summaryBatchThreshold = 20
	summaryBatchSize      = 10
	emptyAnswer           = "Error: Model returned empty response. Try with a shorter prompt."
)

// RAGService interface defines methods for RAG operations
type RAGService interface {
	// IndexDocument embeds every chunk and stores the batch under documentID.
	IndexDocument(c context.Context, documentID string, chunks []string) error
	// AnswerQuery embeds the question and retrieves the topK most similar chunks.
	AnswerQuery(c context.Context, documentID, question string, topK int) (*Retrieval, error)

	IngestUpload(c context.Context, filename string, r io.Reader) (*models.UploadResponse, error)
	IngestFile(c context.Context, path string) (*models.UploadResponse, error)
	Ask(c context.Context, req models.AskRequest) (*models.AskResponse, error)
	Summarize(c context.Context, pdfID string) (string, error)
	GetHistory(c context.Context, sessionID string) ([]string, error)

	GetTexts(c context.Context, pdfID string) ([]string, error)
	GetAllEmbeddings(c context.Context, pdfID string) ([]models.EmbeddingRecord, error)
	Search(c context.Context, query []float32, pdfID string, topK int) ([]models.ScoredRecord, error)
	ListModels(c context.Context) ([]string, error)
}

// Retrieval is the ranked result of AnswerQuery. Context joins the chunk texts in
// ranked order, ready to hand to the generator.
type Retrieval struct {
	Context string
	Results []models.ScoredRecord
}

// VectorRecords is the subset of store.VectorStore the service needs.
type VectorRecords interface {
	AddEmbeddings(ctx context.Context, documentID string, chunks []string, embeddings [][]float32) error
	GetAllEmbeddings(ctx context.Context, documentID string) ([]models.EmbeddingRecord, error)
	GetTexts(ctx context.Context, documentID string) ([]string, error)
	CountChunks(ctx context.Context, documentID string) (int, error)
}

// SessionRecords is the subset of store.SessionStore the service needs.
type SessionRecords interface {
	CreateSession(ctx context.Context, pdfID string) (string, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetHistory(ctx context.Context, id string) ([]string, error)
	AppendHistory(ctx context.Context, id string, entries ...string) error
	AddPDF(ctx context.Context, pdf models.PDF) error
	GetPDF(ctx context.Context, id string) (*models.PDF, error)
	FindPDFByHash(ctx context.Context, hash string) (*models.PDF, error)
}

// RAGOptions tunes chunking, retrieval and the embedding failure policy.
type RAGOptions struct {
	ChunkSize     int
	ChunkOverlap  int
	TopK          int
	HistoryLines  int
	FailurePolicy string
	Concurrency   int
}

// OptionsFromConfig copies the service settings out of cfg.
func OptionsFromConfig(cfg *config.Config) RAGOptions {
	return RAGOptions{
		ChunkSize:     cfg.ChunkSize,
		ChunkOverlap:  cfg.ChunkOverlap,
		TopK:          cfg.TopK,
		HistoryLines:  cfg.HistoryLines,
		FailurePolicy: cfg.EmbedFailurePolicy,
		Concurrency:   cfg.EmbedConcurrency,
	}
}

// ragServiceImpl holds the dependencies it needs to do its job
type ragServiceImpl struct {
	vectors     VectorRecords
	sessions    SessionRecords
	engine      *search.Engine
	embedder    Embedder
	generator   Generator
	FileActions *FileActions
	opts        RAGOptions

	extract func(path string) (string, error)
}

// NewRAGService creates a new RAG service instance
func NewRAGService(vectors VectorRecords, sessions SessionRecords, embedder Embedder, generator Generator, fileActions *FileActions, opts RAGOptions) RAGService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.PolicyZero
	}
	return &ragServiceImpl{
		vectors:     vectors,
		sessions:    sessions,
		engine:      search.NewEngine(vectors),
		embedder:    embedder,
		generator:   generator,
		FileActions: fileActions,
		opts:        opts,
		extract:     ExtractTextFromFile,
	}
}

// IndexDocument implements RAGService. Chunks are embedded concurrently. When a chunk
// fails to embed, the zero policy stores a zero vector in its place and the abort
// policy fails the whole document without writing anything.
func (r *ragServiceImpl) IndexDocument(c context.Context, documentID string, chunks []string) error {
	log.Printf("INDEXER: Building embeddings for %d chunks of %s...", len(chunks), documentID)

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(c)
	g.SetLimit(r.opts.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			vec, err := r.embedder.Embed(gctx, chunk)
			if err != nil {
				if r.opts.FailurePolicy == config.PolicyAbort {
					return fmt.Errorf("could not embed chunk %d of %s: %w", i, documentID, err)
				}
				log.WithError(err).Warnf("INDEXER: Embedding failed for chunk %d of %s, storing zero vector", i, documentID)
				vec = make([]float32, r.embedder.Dimensions())
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := c.Err(); err != nil {
		return err
	}

	return r.vectors.AddEmbeddings(c, documentID, chunks, vectors)
}

// AnswerQuery implements RAGService.
func (r *ragServiceImpl) AnswerQuery(c context.Context, documentID, question string, topK int) (*Retrieval, error) {
	queryVec, err := r.embedder.Embed(c, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query text: %w", err)
	}

	results, err := r.engine.Search(c, queryVec, documentID, topK)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Record.Text
	}
	log.Printf("SERVICE-HELPER: Retrieved %d chunks for %s", len(results), documentID)
	return &Retrieval{Context: strings.Join(texts, "\n\n"), Results: results}, nil
}

// IngestUpload implements RAGService: save, extract, chunk, register and index.
func (r *ragServiceImpl) IngestUpload(c context.Context, filename string, body io.Reader) (*models.UploadResponse, error) {
	if r.FileActions == nil {
		return nil, errors.New("uploads are not configured")
	}
	stored, path, err := r.FileActions.SaveUpload(filename, body)
	if err != nil {
		return nil, err
	}
	hash, err := calculateFileHash(path)
	if err != nil {
		return nil, fmt.Errorf("could not hash upload %s: %w", stored, err)
	}
	resp, err := r.ingest(c, models.PDF{ID: uuid.New().String(), Filename: stored, Path: path, FileHash: hash})
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			log.WithError(rmErr).Warnf("INDEXER: Could not remove failed upload %s", stored)
		}
		return nil, err
	}
	return resp, nil
}

// IngestFile implements RAGService for files already on disk. A file whose contents
// were ingested before is not indexed again; its existing pdf_id is returned.
func (r *ragServiceImpl) IngestFile(c context.Context, path string) (*models.UploadResponse, error) {
	if !isSupportedFile(path) {
		return nil, fmt.Errorf("%w: unsupported file type %q", models.ErrInvalidArgument, filepath.Ext(path))
	}
	hash, err := calculateFileHash(path)
	if err != nil {
		return nil, fmt.Errorf("could not hash %s: %w", path, err)
	}

	pdfID := uuid.New().String()
	existing, err := r.sessions.FindPDFByHash(c, hash)
	switch {
	case err == nil:
		n, err := r.vectors.CountChunks(c, existing.ID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return &models.UploadResponse{Status: "ok", PDFID: existing.ID, Chunks: n, Message: "Already indexed"}, nil
		}
		// registered by an earlier ingest that never stored its chunks
		log.Printf("INDEXER: %s is registered as %s without chunks, indexing again", path, existing.ID)
		pdfID = existing.ID
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	return r.ingest(c, models.PDF{ID: pdfID, Filename: filepath.Base(path), Path: path, FileHash: hash})
}

func (r *ragServiceImpl) ingest(c context.Context, pdf models.PDF) (*models.UploadResponse, error) {
	log.Printf("INDEXER: Extracting text from %s...", pdf.Filename)
	text, err := r.extract(pdf.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not extract text from %s: %w", models.ErrInvalidArgument, pdf.Filename, err)
	}

	log.Printf("INDEXER: Chunking text (length: %d chars)...", len(text))
	chunks, err := chunker.Chunk(text, r.opts.ChunkSize, r.opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %s", models.ErrInvalidArgument, pdf.Filename)
	}
	log.Printf("INDEXER: Created %d chunks", len(chunks))

	// A pdf is registered only after its chunks are stored.
	if err := r.IndexDocument(c, pdf.ID, chunks); err != nil {
		return nil, err
	}
	if err := r.sessions.AddPDF(c, pdf); err != nil {
		return nil, err
	}

	log.Printf("INDEXER: Successfully indexed %s with pdf_id: %s", pdf.Filename, pdf.ID)
	return &models.UploadResponse{Status: "ok", PDFID: pdf.ID, Chunks: len(chunks), Message: "Uploaded and indexed"}, nil
}

// Ask implements RAGService. Provider failures never fail the request: they become an
// "Error: ..." answer that is still recorded in the session history.
func (r *ragServiceImpl) Ask(c context.Context, req models.AskRequest) (*models.AskResponse, error) {
	log.Printf("SERVICE: Asking about %s: '%s' (SessionID: '%s')", req.PDFID, req.Question, req.SessionID)

	if err := r.ensureIndexed(c, req.PDFID); err != nil {
		return nil, err
	}
	sessionID, err := r.ensureSession(c, req.PDFID, req.SessionID)
	if err != nil {
		return nil, err
	}

	var (
		answer  string
		sources []models.SourceDocument
	)
	retrieval, err := r.AnswerQuery(c, req.PDFID, req.Question, r.opts.TopK)
	switch {
	case errors.Is(err, models.ErrProvider):
		log.WithError(err).Warn("SERVICE: Retrieval failed, answering with the provider error")
		answer = "Error: " + err.Error()
	case err != nil:
		return nil, err
	default:
		sources = sourceDocuments(retrieval.Results)
		history, err := r.sessions.GetHistory(c, sessionID)
		if err != nil {
			return nil, err
		}
		prompt, err := BuildAskPrompt(lastLines(history, r.opts.HistoryLines), retrieval.Context, req.Question)
		if err != nil {
			return nil, fmt.Errorf("could not build prompt: %w", err)
		}
		answer = r.generate(c, prompt, answerMaxTokens)
	}

	if err := r.sessions.AppendHistory(c, sessionID, "User: "+req.Question, "AI: "+answer); err != nil {
		return nil, err
	}

	return &models.AskResponse{Answer: answer, SessionID: sessionID, Sources: sources}, nil
}

// ensureIndexed reports models.ErrNotFound for a pdf without stored chunks, whether or
// not it is registered.
func (r *ragServiceImpl) ensureIndexed(c context.Context, pdfID string) error {
	n, err := r.vectors.CountChunks(c, pdfID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("pdf %s not found or not indexed: %w", pdfID, models.ErrNotFound)
	}
	return nil
}

// ensureSession returns sessionID when it exists, otherwise a new session for pdfID.
func (r *ragServiceImpl) ensureSession(c context.Context, pdfID, sessionID string) (string, error) {
	if sessionID != "" {
		_, err := r.sessions.GetSession(c, sessionID)
		if err == nil {
			return sessionID, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return "", err
		}
		log.Printf("SERVICE: Session %s not found. Creating a new one.", sessionID)
	}
	return r.sessions.CreateSession(c, pdfID)
}

// generate never fails: provider errors and empty responses become answer text.
func (r *ragServiceImpl) generate(c context.Context, prompt string, maxTokens int32) string {
	if r.generator == nil {
		return "Error: no generation provider configured"
	}
	text, err := r.generator.Generate(c, prompt, maxTokens)
	if err != nil {
		log.WithError(err).Error("SERVICE-HELPER: Generation failed")
		return "Error: " + err.Error()
	}
	if strings.TrimSpace(text) == "" {
		return emptyAnswer
	}
	return text
}

// Summarize implements RAGService. Documents with more than 20 chunks are summarized
// in batches of 10 first, then the partial summaries are summarized together.
func (r *ragServiceImpl) Summarize(c context.Context, pdfID string) (string, error) {
	chunks, err := r.vectors.GetTexts(c, pdfID)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("pdf %s: %w", pdfID, models.ErrNotFound)
	}

	if len(chunks) <= summaryBatchThreshold {
		prompt, err := buildSummarizePrompt(strings.Join(chunks, "\n\n"))
		if err != nil {
			return "", err
		}
		return r.generate(c, prompt, answerMaxTokens), nil
	}

	partials := make([]string, 0, (len(chunks)+summaryBatchSize-1)/summaryBatchSize)
	for i := 0; i < len(chunks); i += summaryBatchSize {
		batch := chunks[i:min(i+summaryBatchSize, len(chunks))]
		prompt, err := buildSummarizePrompt(strings.Join(batch, "\n\n"))
		if err != nil {
			return "", err
		}
		partials = append(partials, r.generate(c, prompt, partialSummaryTokens))
	}
	log.Printf("SERVICE: Merging %d partial summaries for %s", len(partials), pdfID)

	prompt, err := buildMergeSummariesPrompt(partials)
	if err != nil {
		return "", err
	}
	return r.generate(c, prompt, answerMaxTokens), nil
}

// GetHistory implements RAGService.
func (r *ragServiceImpl) GetHistory(c context.Context, sessionID string) ([]string, error) {
	return r.sessions.GetHistory(c, sessionID)
}

// GetTexts implements RAGService.
func (r *ragServiceImpl) GetTexts(c context.Context, pdfID string) ([]string, error) {
	return r.vectors.GetTexts(c, pdfID)
}

// GetAllEmbeddings implements RAGService.
func (r *ragServiceImpl) GetAllEmbeddings(c context.Context, pdfID string) ([]models.EmbeddingRecord, error) {
	return r.vectors.GetAllEmbeddings(c, pdfID)
}

// Search implements RAGService.
func (r *ragServiceImpl) Search(c context.Context, query []float32, pdfID string, topK int) ([]models.ScoredRecord, error) {
	return r.engine.Search(c, query, pdfID, topK)
}

// ListModels implements RAGService.
func (r *ragServiceImpl) ListModels(c context.Context) ([]string, error) {
	if r.generator == nil {
		return nil, errors.New("no generation provider configured")
	}
	return r.generator.ListModels(c)
}

func sourceDocuments(results []models.ScoredRecord) []models.SourceDocument {
	docs := make([]models.SourceDocument, len(results))
	for i, res := range results {
		docs[i] = models.SourceDocument{ChunkIndex: res.Record.ChunkIndex, Text: res.Record.Text, Score: res.Score}
	}
	return docs
}
