// Package chunker splits extracted document text into overlapping word windows.
package chunker

import (
	"fmt"
	"strings"

	"github/itish2003/pdfqa/models"
)

// Default window parameters, in words.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Chunk splits text on whitespace and returns windows of chunkSize words joined by
// single spaces. Windows start at word offsets 0, stride, 2*stride, ... where
// stride = chunkSize - overlap, and the window that reaches the last word is the
// final one, so it may hold fewer than chunkSize words.
//
// Empty text yields no chunks. overlap >= chunkSize fails with
// models.ErrInvalidConfiguration.
func Chunk(text string, chunkSize, overlap int) ([]string, error) {
	if err := Validate(chunkSize, overlap); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	stride := chunkSize - overlap
	chunks := make([]string, 0, Count(len(words), chunkSize, overlap))
	for start := 0; start < len(words); start += stride {
		end := min(start+chunkSize, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}

// Validate reports whether chunkSize and overlap leave a positive stride.
func Validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidConfiguration, chunkSize)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", models.ErrInvalidConfiguration, overlap)
	}
	if overlap >= chunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", models.ErrInvalidConfiguration, overlap, chunkSize)
	}
	return nil
}

// Count returns how many chunks Chunk produces for a text of words words:
// ceil(max(words-overlap, 1) / (chunkSize-overlap)), or 0 for no words.
// Parameters are assumed valid.
func Count(words, chunkSize, overlap int) int {
	if words == 0 {
		return 0
	}
	stride := chunkSize - overlap
	span := max(words-overlap, 1)
	return (span + stride - 1) / stride
}
