package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Uploader moves a staged local file to media storage. Implementations
// remove the staged file once the attempt is over, whether it succeeded or not.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (*UploadResult, error)
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	URL      string
	PublicID string
	Duration float64
}

// ErrNoFile is returned when the staged file does not exist.
var ErrNoFile = errors.New("staged file does not exist")

// Stage copies src into dir under a random name that keeps the extension of
// originalName, and returns the path of the staged file.
func Stage(dir string, src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	path := filepath.Join(dir, uuid.NewString()+ext)

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return path, nil
}

// RemoveStaged deletes a staged file. A file that is already gone is not an error.
func RemoveStaged(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove staged file: %w", err)
	}
	return nil
}

// CheckStaged returns ErrNoFile when path is empty or missing.
func CheckStaged(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, ErrNoFile
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoFile
		}
		return nil, fmt.Errorf("stat staged file: %w", err)
	}
	if info.IsDir() {
		return nil, ErrNoFile
	}
	return info, nil
}
