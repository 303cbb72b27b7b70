package services

import (
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

var (
	askPrompt = prompts.NewPromptTemplate(
		"{{.history}}\n\nContext:\n{{.context}}\n\nUser question: {{.question}}\nAnswer based on context:",
		[]string{"history", "context", "question"},
	)
	summarizePrompt = prompts.NewPromptTemplate(
		"Summarize the following in bullet points:\n\n{{.text}}",
		[]string{"text"},
	)
	mergeSummariesPrompt = prompts.NewPromptTemplate(
		"Summarize these summaries into concise bullet points:\n\n{{.text}}",
		[]string{"text"},
	)
)

// BuildAskPrompt renders the question prompt from recent history, retrieved context
// and the question itself.
func BuildAskPrompt(history []string, context, question string) (string, error) {
	return askPrompt.Format(map[string]any{
		"history":  strings.Join(history, "\n"),
		"context":  context,
		"question": question,
	})
}

func buildSummarizePrompt(text string) (string, error) {
	return summarizePrompt.Format(map[string]any{"text": text})
}

func buildMergeSummariesPrompt(summaries []string) (string, error) {
	return mergeSummariesPrompt.Format(map[string]any{"text": strings.Join(summaries, "\n\n")})
}

// lastLines returns at most n trailing entries of history.
func lastLines(history []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
