package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/utafrali/VideoTubeGo/internal/storage"
)

// Entry describes an uploaded file.
type Entry struct {
	PublicID string
	Size     int64
	URL      string
}

// Storage implements storage.Uploader in memory. It keeps metadata only,
// no file bytes, and is used in development and tests.
type Storage struct {
	mu      sync.RWMutex
	files   map[string]Entry
	baseURL string
}

// New creates a new in-memory storage instance serving URLs under baseURL.
func New(baseURL string) *Storage {
	return &Storage{
		files:   make(map[string]Entry),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload records the staged file and returns its generated URL. The staged
// file is removed in every case.
func (s *Storage) Upload(_ context.Context, localPath string) (*storage.UploadResult, error) {
	defer func() { _ = storage.RemoveStaged(localPath) }()

	info, err := storage.CheckStaged(localPath)
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", localPath, err)
	}

	publicID := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	entry := Entry{
		PublicID: publicID,
		Size:     info.Size(),
		URL:      s.baseURL + "/" + publicID,
	}

	s.mu.Lock()
	s.files[publicID] = entry
	s.mu.Unlock()

	return &storage.UploadResult{URL: entry.URL, PublicID: publicID}, nil
}

// Get returns the entry recorded for publicID.
func (s *Storage) Get(publicID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.files[publicID]
	return e, ok
}

// Len returns the number of recorded uploads.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
