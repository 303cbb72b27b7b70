package services

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github/itish2003/pdfqa/models"
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxOutputTokens int32) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// GeminiGenerator calls the Gemini text generation API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiGenerator(client *genai.Client, model string, timeout time.Duration) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model, timeout: timeout}
}

// Generate returns the concatenated text parts of the first candidate. An empty
// string with a nil error means the model produced no text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
	ctx, cancel, err := callContext(ctx, nil, g.timeout)
	if err != nil {
		return "", &models.ProviderError{Provider: "gemini", Op: "generate", Err: err}
	}
	defer cancel()

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: GetSystemPrompt(),
		MaxOutputTokens:   maxOutputTokens,
		Temperature:       genai.Ptr[float32](0.7),
	})
	if err != nil {
		return "", &models.ProviderError{Provider: "gemini", Op: "generate", Err: err}
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", nil
	}
	cand := result.Candidates[0]
	var responseText strings.Builder
	for _, p := range cand.Content.Parts {
		if p != nil && p.Text != "" {
			responseText.WriteString(p.Text)
		}
	}
	if responseText.Len() == 0 {
		log.Printf("SERVICE-HELPER: Gemini returned no text (finish reason: %s)", cand.FinishReason)
	}
	return responseText.String(), nil
}

// ListModels returns the model names visible to the API key, following every page.
func (g *GeminiGenerator) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel, err := callContext(ctx, nil, g.timeout)
	if err != nil {
		return nil, &models.ProviderError{Provider: "gemini", Op: "list models", Err: err}
	}
	defer cancel()

	var names []string
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, &models.ProviderError{Provider: "gemini", Op: "list models", Err: err}
		}
		names = append(names, m.Name)
	}
	return names, nil
}
