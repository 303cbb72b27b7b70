package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/itish2003/pdfqa/config"
)

// keywordEmbedder scores "cats", "dogs" and "rockets" on three axes.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 3)
	for i, kw := range []string{"cats", "dogs", "rockets"} {
		if strings.Contains(text, kw) {
			v[i] = 1
		}
	}
	return v, nil
}

func (keywordEmbedder) Dimensions() int { return 3 }

// setupTestApp points every command at SQLite files in a temp dir.
func setupTestApp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:            filepath.Join(dir, "data"),
		UploadDir:          filepath.Join(dir, "uploads"),
		EmbeddingDim:       3,
		ChunkSize:          3,
		ChunkOverlap:       0,
		TopK:               2,
		HistoryLines:       4,
		EmbedFailurePolicy: config.PolicyZero,
		EmbedConcurrency:   1,
	}
	orig := newApp
	newApp = func(context.Context) (*app, error) {
		return assembleApp(cfg, keywordEmbedder{}, nil)
	}
	t.Cleanup(func() {
		newApp = orig
		retrieveTopK = 0
	})
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

var pdfIDPattern = regexp.MustCompile(`pdf_id: (\S+)`)

func ingestSample(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "animals.txt")
	require.NoError(t, os.WriteFile(path, []byte("cats purr loudly dogs bark often rockets burn fuel"), 0o644))

	out, err := execute(t, "ingest", path)
	require.NoError(t, err)
	m := pdfIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	return m[1]
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "ingest")
	assert.Contains(t, names, "chunks")
	assert.Contains(t, names, "embeddings")
	assert.Contains(t, names, "retrieve")
}

func TestCommands_RequireArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"ingest"}, want: "accepts 1 arg(s)"},
		{args: []string{"chunks"}, want: "accepts 1 arg(s)"},
		{args: []string{"embeddings", "a", "b"}, want: "accepts 1 arg(s)"},
		{args: []string{"retrieve", "pdf-1"}, want: "accepts 2 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIngestAndInspect(t *testing.T) {
	dir := setupTestApp(t)
	pdfID := ingestSample(t, dir)

	out, err := execute(t, "chunks", pdfID)
	require.NoError(t, err)
	assert.Contains(t, out, "[0] cats purr loudly")
	assert.Contains(t, out, "[2] rockets burn fuel")
	assert.Contains(t, out, "Total: 3 chunks")

	out, err = execute(t, "embeddings", pdfID)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] dim=3 [0 1 0]")
	assert.Contains(t, out, "Total: 3 embeddings")

	out, err = execute(t, "retrieve", pdfID, "where do rockets go")
	require.NoError(t, err)
	assert.Contains(t, out, "1. chunk 2 (score 1.0000)")
	assert.Contains(t, out, "2. chunk 0")
	assert.NotContains(t, out, "3. chunk")

	out, err = execute(t, "retrieve", "--top-k", "3", pdfID, "where do rockets go")
	require.NoError(t, err)
	assert.Contains(t, out, "3. chunk 1")
}

func TestIngest_SameFileTwice(t *testing.T) {
	dir := setupTestApp(t)
	first := ingestSample(t, dir)

	out, err := execute(t, "ingest", filepath.Join(dir, "animals.txt"))
	require.NoError(t, err)
	assert.Contains(t, out, "Already indexed")
	assert.Contains(t, out, first)
}

func TestInspect_UnknownPDF(t *testing.T) {
	setupTestApp(t)

	out, err := execute(t, "chunks", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, "No chunks found for pdf: missing")

	out, err = execute(t, "retrieve", "missing", "cats")
	require.NoError(t, err)
	assert.Contains(t, out, "No chunks found for pdf: missing")
}

func TestIngest_UnsupportedFile(t *testing.T) {
	dir := setupTestApp(t)
	path := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	_, err := execute(t, "ingest", path)
	assert.ErrorContains(t, err, "unsupported file type")
}
