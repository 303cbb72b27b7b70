package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github/itish2003/pdfqa/models"
	"github/itish2003/pdfqa/store"
)

// Embedder turns text into a vector of fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// EmbedderConfig is shared by both embedding providers.
type EmbedderConfig struct {
	Model      string
	Dimensions int
	// RatePerSec limits outgoing calls; zero means unlimited.
	RatePerSec float64
	Timeout    time.Duration
}

func newLimiter(perSec float64) *rate.Limiter {
	if perSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

// callContext waits for the limiter and applies the per-call timeout.
func callContext(ctx context.Context, limiter *rate.Limiter, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}
	if timeout <= 0 {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, nil
}

// GeminiEmbedder calls the Gemini embedding API.
type GeminiEmbedder struct {
	client  *genai.Client
	cfg     EmbedderConfig
	limiter *rate.Limiter
}

func NewGeminiEmbedder(client *genai.Client, cfg EmbedderConfig) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, cfg: cfg, limiter: newLimiter(cfg.RatePerSec)}
}

func (g *GeminiEmbedder) Dimensions() int { return g.cfg.Dimensions }

// Embed implements Embedder.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel, err := callContext(ctx, g.limiter, g.cfg.Timeout)
	if err != nil {
		return nil, &models.ProviderError{Provider: "gemini", Op: "embed", Err: err}
	}
	defer cancel()

	dim := int32(g.cfg.Dimensions)
	resp, err := g.client.Models.EmbedContent(ctx, g.cfg.Model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, &models.ProviderError{Provider: "gemini", Op: "embed", Err: err}
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, &models.ProviderError{Provider: "gemini", Op: "embed", Err: fmt.Errorf("response has no embeddings")}
	}
	return checkDimensions("gemini", resp.Embeddings[0].Values, g.cfg.Dimensions)
}

// OllamaEmbedder calls a local Ollama server's embeddings endpoint.
type OllamaEmbedder struct {
	httpClient *http.Client
	baseURL    string
	cfg        EmbedderConfig
	limiter    *rate.Limiter
}

func NewOllamaEmbedder(httpClient *http.Client, baseURL string, cfg EmbedderConfig) *OllamaEmbedder {
	return &OllamaEmbedder{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cfg:        cfg,
		limiter:    newLimiter(cfg.RatePerSec),
	}
}

func (o *OllamaEmbedder) Dimensions() int { return o.cfg.Dimensions }

// Embed implements Embedder.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := o.embed(ctx, text)
	if err != nil {
		return nil, &models.ProviderError{Provider: "ollama", Op: "embed", Err: err}
	}
	return checkDimensions("ollama", vec, o.cfg.Dimensions)
}

func (o *OllamaEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel, err := callContext(ctx, o.limiter, o.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  o.cfg.Model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return store.Float32s(ollamaResp.Embedding), nil
}

func checkDimensions(provider string, vec []float32, want int) ([]float32, error) {
	if len(vec) != want {
		return nil, &models.ProviderError{
			Provider: provider,
			Op:       "embed",
			Err:      fmt.Errorf("got %d dimensions, want %d", len(vec), want),
		}
	}
	return vec, nil
}
