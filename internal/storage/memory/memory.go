package memory

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/google/uuid"

	"github.com/Volatile-Viv/Try-Karo/internal/storage"
)

// Storage implements storage.Storage using an in-memory map.
// It keeps the uploaded payloads for tests and local development.
type Storage struct {
	mu      sync.RWMutex
	files   map[string]string
	baseURL string
}

// New creates a new in-memory storage instance.
func New(baseURL string) *Storage {
	return &Storage{
		files:   make(map[string]string),
		baseURL: baseURL,
	}
}

// Upload stores the payload in memory and returns the generated URL.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if input.File == "" {
		return nil, fmt.Errorf("empty file")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	publicID := path.Join(input.Folder, uuid.New().String())
	s.files[publicID] = input.File

	return &storage.UploadResult{
		PublicID: publicID,
		URL:      fmt.Sprintf("%s/%s", s.baseURL, publicID),
	}, nil
}

// Get returns the stored payload for publicID.
func (s *Storage) Get(publicID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[publicID]
	return f, ok
}
