package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/itish2003/pdfqa/models"
)

func TestSanitizeFilename(t *testing.T) {
	fa := &FileActions{UploadDir: t.TempDir()}

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain pdf", in: "report.pdf", want: "report.pdf"},
		{name: "upper case extension", in: "REPORT.PDF", want: "REPORT.PDF"},
		{name: "unix traversal", in: "../../etc/notes.txt", want: "notes.txt"},
		{name: "windows traversal", in: `..\..\secret.md`, want: "secret.md"},
		{name: "empty", in: "", wantErr: true},
		{name: "dot dot", in: "..", wantErr: true},
		{name: "unsupported", in: "image.png", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fa.sanitizeFilename(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveUpload(t *testing.T) {
	fa, err := NewFileActions(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	stored, path, err := fa.SaveUpload("../guide.md", strings.NewReader("# Guide"))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(stored, "__guide.md"))
	assert.Equal(t, filepath.Join(fa.UploadDir, stored), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Guide", string(content))

	again, _, err := fa.SaveUpload("guide.md", strings.NewReader("# Guide"))
	require.NoError(t, err)
	assert.NotEqual(t, stored, again)
}
