package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextFromFile_PlainText(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "README.md"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("line one\nline two"), 0o644))

		text, err := ExtractTextFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "line one\nline two", text)
	}
}

func TestExtractTextFromFile_Unsupported(t *testing.T) {
	_, err := ExtractTextFromFile(filepath.Join(t.TempDir(), "slides.pptx"))
	assert.ErrorContains(t, err, "unsupported file type: .pptx")
}

func TestExtractTextFromFile_InvalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := ExtractTextFromFile(path)
	assert.Error(t, err)
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, isSupportedFile("a.pdf"))
	assert.True(t, isSupportedFile("A.PDF"))
	assert.True(t, isSupportedFile("dir/b.md"))
	assert.True(t, isSupportedFile("c.txt"))
	assert.False(t, isSupportedFile("d.docx"))
	assert.False(t, isSupportedFile("noext"))
}

func TestCalculateFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	hash, err := calculateFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)
}
