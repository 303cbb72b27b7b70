package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github/itish2003/pdfqa/config"
	"github/itish2003/pdfqa/models"
	"github/itish2003/pdfqa/services"
	"github/itish2003/pdfqa/store"
)

// app is the wired service graph shared by every command.
type app struct {
	cfg *config.Config
	rag services.RAGService
	// close releases both databases.
	close func()
}

// newApp builds the app from the environment. Tests replace it.
var newApp = buildApp

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.LogLevel)
	services.SetupPDFLicense(cfg.UnidocLicenseKey)

	var client *genai.Client
	if cfg.GeminiAPIKey != "" {
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		log.Println("Successfully connected to Google Gemini.")
	}

	embedderCfg := services.EmbedderConfig{
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDim,
		RatePerSec: cfg.EmbedRatePerSec,
		Timeout:    cfg.ProviderTimeout,
	}
	var embedder services.Embedder
	switch cfg.EmbeddingProvider {
	case config.ProviderOllama:
		embedder = services.NewOllamaEmbedder(&http.Client{}, cfg.OllamaURL, embedderCfg)
	default:
		if client == nil {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY or GOOGLE_API_KEY is required for gemini embeddings", models.ErrInvalidConfiguration)
		}
		embedder = services.NewGeminiEmbedder(client, embedderCfg)
	}

	var generator services.Generator
	if client != nil {
		generator = services.NewGeminiGenerator(client, cfg.GenerationModel, cfg.ProviderTimeout)
	} else {
		log.Warn("No Gemini API key set. Answers and summaries are disabled.")
	}

	return assembleApp(cfg, embedder, generator)
}

// assembleApp opens the stores and builds the RAG service on top of the given providers.
func assembleApp(cfg *config.Config, embedder services.Embedder, generator services.Generator) (*app, error) {
	vectorsDB, err := store.Open(cfg.VectorsDBPath())
	if err != nil {
		return nil, err
	}
	sessionsDB, err := store.Open(cfg.SessionsDBPath())
	if err != nil {
		vectorsDB.Close()
		return nil, err
	}
	closeAll := func() {
		if err := errors.Join(vectorsDB.Close(), sessionsDB.Close()); err != nil {
			log.WithError(err).Warn("Failed to close databases")
		}
	}

	vectors, err := store.NewVectorStore(vectorsDB)
	if err != nil {
		closeAll()
		return nil, err
	}
	sessions, err := store.NewSessionStore(sessionsDB)
	if err != nil {
		closeAll()
		return nil, err
	}
	fileActions, err := services.NewFileActions(cfg.UploadDir)
	if err != nil {
		closeAll()
		return nil, err
	}

	rag := services.NewRAGService(vectors, sessions, embedder, generator, fileActions, services.OptionsFromConfig(cfg))
	return &app{cfg: cfg, rag: rag, close: closeAll}, nil
}

func setupLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithError(err).Warnf("Unknown LOG_LEVEL %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if lvl < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}
