package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/itish2003/pdfqa/models"
)

func setupVectorStore(t *testing.T) *VectorStore {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	vs, err := NewVectorStore(db)
	require.NoError(t, err)
	return vs
}

func TestVectorStore_AddAndGetAll(t *testing.T) {
	vs := setupVectorStore(t)
	ctx := context.Background()

	chunks := []string{"cats are mammals", "dogs are mammals", "rockets use fuel"}
	vecs := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}}
	require.NoError(t, vs.AddEmbeddings(ctx, "doc-1", chunks, vecs))

	records, err := vs.GetAllEmbeddings(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, records, 3)

	sort.Slice(records, func(i, j int) bool { return records[i].ChunkIndex < records[j].ChunkIndex })
	for i, rec := range records {
		assert.Equal(t, "doc-1", rec.DocumentID)
		assert.Equal(t, i, rec.ChunkIndex)
		assert.Equal(t, chunks[i], rec.Text)
		assert.Equal(t, 2, rec.Dimension)
		assert.Equal(t, vecs[i], rec.Vector)
		assert.NotZero(t, rec.ID)
	}
	assert.Less(t, records[0].ID, records[1].ID)
	assert.Less(t, records[1].ID, records[2].ID)
}

func TestVectorStore_GetTextsOrdered(t *testing.T) {
	vs := setupVectorStore(t)
	ctx := context.Background()

	chunks := make([]string, 12)
	vecs := make([][]float32, 12)
	for i := range chunks {
		chunks[i] = fmt.Sprintf("chunk %d", i)
		vecs[i] = []float32{float32(i), 1}
	}
	require.NoError(t, vs.AddEmbeddings(ctx, "doc", chunks, vecs))

	texts, err := vs.GetTexts(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, chunks, texts)

	n, err := vs.CountChunks(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestVectorStore_UnknownDocumentIsEmpty(t *testing.T) {
	vs := setupVectorStore(t)
	ctx := context.Background()

	records, err := vs.GetAllEmbeddings(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, records)

	texts, err := vs.GetTexts(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, texts)
	assert.Empty(t, texts)
}

func TestVectorStore_InvalidArguments(t *testing.T) {
	vs := setupVectorStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		doc    string
		chunks []string
		vecs   [][]float32
	}{
		{"length mismatch", "d", []string{"a", "b"}, [][]float32{{1}}},
		{"empty document id", "", []string{"a"}, [][]float32{{1}}},
		{"mixed dimensions", "d", []string{"a", "b"}, [][]float32{{1, 2}, {1}}},
		{"empty vector", "d", []string{"a"}, [][]float32{{}}},
		{"empty text", "d", []string{""}, [][]float32{{1}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := vs.AddEmbeddings(ctx, tc.doc, tc.chunks, tc.vecs)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
		})
	}

	records, err := vs.GetAllEmbeddings(ctx, "d")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestVectorStore_EmptyBatchIsNoop(t *testing.T) {
	vs := setupVectorStore(t)
	require.NoError(t, vs.AddEmbeddings(context.Background(), "doc", nil, nil))
}

func TestVectorStore_SecondBatchForSameDocumentIsRejectedWhole(t *testing.T) {
	vs := setupVectorStore(t)
	ctx := context.Background()

	require.NoError(t, vs.AddEmbeddings(ctx, "doc", []string{"a"}, [][]float32{{1, 0}}))

	err := vs.AddEmbeddings(ctx, "doc", []string{"x", "y", "z"}, [][]float32{{1, 0}, {0, 1}, {1, 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorage)

	texts, err := vs.GetTexts(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, texts, "failed batch must leave no rows behind")
}

func TestVectorStore_IdempotentRead(t *testing.T) {
	vs := setupVectorStore(t)
	ctx := context.Background()

	require.NoError(t, vs.AddEmbeddings(ctx, "doc", []string{"a", "b"}, [][]float32{{1, 2, 3}, {-4, 0, 6}}))

	first, err := vs.GetAllEmbeddings(ctx, "doc")
	require.NoError(t, err)
	second, err := vs.GetAllEmbeddings(ctx, "doc")
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
}

func TestVectorStore_DocumentsAreIsolated(t *testing.T) {
	vs := setupVectorStore(t)
	ctx := context.Background()

	require.NoError(t, vs.AddEmbeddings(ctx, "a", []string{"a0", "a1"}, [][]float32{{1}, {2}}))
	require.NoError(t, vs.AddEmbeddings(ctx, "b", []string{"b0"}, [][]float32{{3}}))

	texts, err := vs.GetTexts(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a0", "a1"}, texts)

	texts, err = vs.GetTexts(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b0"}, texts)
}

func TestVectorStore_ConcurrentWritesToDifferentDocuments(t *testing.T) {
	vs := setupVectorStore(t)
	ctx := context.Background()

	const docs, perDoc = 8, 25
	var wg sync.WaitGroup
	errs := make(chan error, docs)
	for d := 0; d < docs; d++ {
		wg.Add(1)
		go func(d int) {
			defer wg.Done()
			chunks := make([]string, perDoc)
			vecs := make([][]float32, perDoc)
			for i := range chunks {
				chunks[i] = fmt.Sprintf("doc %d chunk %d", d, i)
				vecs[i] = []float32{float32(d), float32(i)}
			}
			errs <- vs.AddEmbeddings(ctx, fmt.Sprintf("doc-%d", d), chunks, vecs)
		}(d)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for d := 0; d < docs; d++ {
		texts, err := vs.GetTexts(ctx, fmt.Sprintf("doc-%d", d))
		require.NoError(t, err)
		require.Len(t, texts, perDoc)
		for i, text := range texts {
			assert.Equal(t, fmt.Sprintf("doc %d chunk %d", d, i), text)
		}
	}
}

func TestVectorStore_ReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	vs, err := NewVectorStore(db)
	require.NoError(t, err)
	require.NoError(t, vs.AddEmbeddings(ctx, "doc", []string{"kept"}, [][]float32{{0.25, -0.5}}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	vs, err = NewVectorStore(db)
	require.NoError(t, err)

	records, err := vs.GetAllEmbeddings(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []float32{0.25, -0.5}, records[0].Vector)
}
