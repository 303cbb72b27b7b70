package models

// OllamaEmbedRequest is used to structure the request to the Ollama embedding API.
type OllamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// OllamaEmbedResponse is used to parse the embedding from the Ollama API response.
// Ollama reports float64 values; they are narrowed to float32 once before storage.
type OllamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}
