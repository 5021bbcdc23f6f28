package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type storedObject struct {
	contentType string
	content     []byte
}

// MemoryStore is a thread-safe, in-memory PhotoStore for testing/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*storedObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]*storedObject)}
}

func (s *MemoryStore) Upload(_ context.Context, key, contentType string, content io.Reader) (string, error) {
	if !AllowedContentTypes[contentType] {
		return "", ErrInvalidContentType
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxPhotoSize+1))
	if err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxPhotoSize {
		return "", fmt.Errorf("object exceeds %d bytes", MaxPhotoSize)
	}

	s.mu.Lock()
	s.objects[key] = &storedObject{contentType: contentType, content: data}
	s.mu.Unlock()

	return s.PublicURL(key), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) PublicURL(key string) string {
	return "memory://" + key
}

// Get returns a stored object's content. Exposed for tests.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, false
	}
	return obj.content, true
}
