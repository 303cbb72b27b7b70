package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github/itish2003/pdfqa/models"
)

// FileActions stores uploaded files on disk.
type FileActions struct {
	UploadDir string // The absolute path to the uploads directory
}

func NewFileActions(uploadDir string) (*FileActions, error) {
	absPath, err := filepath.Abs(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for upload dir: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("could not create upload dir: %w", err)
	}
	return &FileActions{UploadDir: absPath}, nil
}

// sanitizeFilename keeps only the base name so a client cannot write outside the
// uploads directory, and rejects file types we cannot extract.
func (fa *FileActions) sanitizeFilename(filename string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", fmt.Errorf("%w: invalid filename %q", models.ErrInvalidArgument, filename)
	}
	if !isSupportedFile(base) {
		return "", fmt.Errorf("%w: unsupported file type %q", models.ErrInvalidArgument, filepath.Ext(base))
	}
	return base, nil
}

// SaveUpload writes r to "<uuid>__<basename>" in the uploads directory and returns the
// stored name and its full path.
func (fa *FileActions) SaveUpload(filename string, r io.Reader) (string, string, error) {
	base, err := fa.sanitizeFilename(filename)
	if err != nil {
		return "", "", err
	}
	stored := uuid.New().String() + "__" + base
	path := filepath.Join(fa.UploadDir, stored)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("failed to create upload %q: %w", stored, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("failed to write upload %q: %w", stored, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to close upload %q: %w", stored, err)
	}
	return stored, path, nil
}
