// Package search ranks a document's stored chunks against a query vector by exact,
// brute-force cosine similarity.
//
// Every query scans all records of one document: O(N*D) for N chunks of dimension D.
// There is no index structure; this suits single documents of up to a few thousand
// chunks and is not meant to scale past that.
package search

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github/itish2003/pdfqa/models"
)

// Epsilon is added to each vector norm so zero vectors score 0 instead of dividing by zero.
const Epsilon = 1e-12

// RecordSource loads every embedding record of a document.
type RecordSource interface {
	GetAllEmbeddings(ctx context.Context, documentID string) ([]models.EmbeddingRecord, error)
}

// Engine is the similarity search engine over a RecordSource.
type Engine struct {
	source RecordSource
}

func NewEngine(source RecordSource) *Engine {
	return &Engine{source: source}
}

// Search returns the top min(topK, N) records of documentID ordered by descending
// cosine similarity to query. Equal scores are ordered by ascending chunk_index.
// An unknown document, or topK == 0, yields an empty result.
func (e *Engine) Search(ctx context.Context, query []float32, documentID string, topK int) ([]models.ScoredRecord, error) {
	if topK < 0 {
		return nil, fmt.Errorf("%w: top_k must not be negative, got %d", models.ErrInvalidArgument, topK)
	}

	records, err := e.source.GetAllEmbeddings(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return Rank(query, records, topK)
}

// Rank scores records against query and returns the best topK.
func Rank(query []float32, records []models.EmbeddingRecord, topK int) ([]models.ScoredRecord, error) {
	scored := make([]models.ScoredRecord, 0, len(records))
	if len(records) == 0 || topK == 0 {
		return scored, nil
	}

	qNorm := Norm(query) + Epsilon
	for _, rec := range records {
		if len(rec.Vector) != len(query) {
			return nil, fmt.Errorf("%w: query has dimension %d, chunk %d has %d",
				models.ErrInvalidArgument, len(query), rec.ChunkIndex, len(rec.Vector))
		}
		score := Dot(query, rec.Vector) / (qNorm * (Norm(rec.Vector) + Epsilon))
		scored = append(scored, models.ScoredRecord{Record: rec, Score: score})
	}

	slices.SortFunc(scored, func(a, b models.ScoredRecord) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.ChunkIndex, b.Record.ChunkIndex)
	})

	return scored[:min(topK, len(scored))], nil
}

// Dot accumulates in float64 to keep 768-wide sums stable.
func Dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}
