package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/itish2003/pdfqa/config"
	"github/itish2003/pdfqa/models"
	"github/itish2003/pdfqa/store"
)

// fakeEmbedder maps text to vectors through fn; texts containing "FAIL" error out, and
// every call errors while down is set.
type fakeEmbedder struct {
	dim  int
	fn   func(text string) []float32
	down atomic.Bool

	mu    sync.Mutex
	calls []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.down.Load() {
		return nil, &models.ProviderError{Provider: "fake", Op: "embed", Err: errors.New("503 unavailable")}
	}
	if strings.Contains(text, "FAIL") {
		return nil, &models.ProviderError{Provider: "fake", Op: "embed", Err: errors.New("quota exceeded")}
	}
	return f.fn(text), nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dim }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// keywordEmbedder scores "cats", "dogs" and "rockets" on three axes.
func keywordEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dim: 3, fn: func(text string) []float32 {
		v := make([]float32, 3)
		for i, kw := range []string{"cats", "dogs", "rockets"} {
			if strings.Contains(text, kw) {
				v[i] = 1
			}
		}
		return v
	}}
}

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, _ int32) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.reply == nil {
		return "generated answer", nil
	}
	return f.reply(prompt)
}

func (f *fakeGenerator) ListModels(context.Context) ([]string, error) {
	return []string{"models/fake-1"}, nil
}

type testEnv struct {
	svc       *ragServiceImpl
	vectors   *store.VectorStore
	sessions  *store.SessionStore
	embedder  *fakeEmbedder
	generator *fakeGenerator
	dir       string
}

func newTestEnv(t *testing.T, embedder *fakeEmbedder, opts RAGOptions) *testEnv {
	t.Helper()
	dir := t.TempDir()

	vdb, err := store.Open(filepath.Join(dir, "vectors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, vdb.Close()) })
	sdb, err := store.Open(filepath.Join(dir, "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, sdb.Close()) })

	vectors, err := store.NewVectorStore(vdb)
	require.NoError(t, err)
	sessions, err := store.NewSessionStore(sdb)
	require.NoError(t, err)
	uploads, err := NewFileActions(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	if opts.ChunkSize == 0 {
		opts.ChunkSize, opts.ChunkOverlap = 3, 0
	}
	if opts.TopK == 0 {
		opts.TopK = 5
	}
	if opts.HistoryLines == 0 {
		opts.HistoryLines = 4
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.PolicyZero
	}

	gen := &fakeGenerator{}
	svc := NewRAGService(vectors, sessions, embedder, gen, uploads, opts).(*ragServiceImpl)
	return &testEnv{svc: svc, vectors: vectors, sessions: sessions, embedder: embedder, generator: gen, dir: dir}
}
