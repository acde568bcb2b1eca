package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/utafrali/VideoTubeGo/internal/storage"
	"github.com/utafrali/VideoTubeGo/pkg/httputil"
)

// UploadConfig controls how multipart uploads are staged before they are
// handed to media storage.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// parseMultipart parses the request as a multipart form, writing a 400 or
// 413 on failure.
func (u UploadConfig) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	if u.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, u.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteErrorMessage(w, r, http.StatusRequestEntityTooLarge, "upload is too large")
			return false
		}
		httputil.WriteErrorMessage(w, r, http.StatusBadRequest, "invalid multipart form", err.Error())
		return false
	}
	return true
}

// stage copies the named file field of a parsed multipart form into the
// upload directory. A missing field yields an empty path and no error.
func (u UploadConfig) stage(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()

	path, err := storage.Stage(u.Dir, file, header.Filename)
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", field, err)
	}
	return path, nil
}

// cleanup removes staged files and the form's temporary files. Uploaders
// remove what they consume, so this only catches requests that failed early.
func cleanup(r *http.Request, paths ...string) {
	for _, p := range paths {
		_ = storage.RemoveStaged(p)
	}
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
