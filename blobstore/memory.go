package blobstore

import (
	"context"
	"sync"
)

// Memory keeps blobs in process, for tests and throwaway local runs.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string]Object), baseURL: baseURL}
}

func (m *Memory) Upload(ctx context.Context, p string, data []byte, contentType string) error {
	clean, err := Clean(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[clean] = Object{
		Path:        clean,
		ContentType: contentTypeFor(clean, contentType),
		Data:        append([]byte(nil), data...),
	}
	return nil
}

func (m *Memory) MakePublic(ctx context.Context, p string) error {
	clean, err := Clean(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[clean]
	if !ok {
		return ErrNotFound
	}
	obj.Public = true
	m.objects[clean] = obj
	return nil
}

func (m *Memory) PublicURL(p string) string {
	clean, err := Clean(p)
	if err != nil {
		return ""
	}
	return publicURL(m.baseURL, clean)
}

func (m *Memory) Open(ctx context.Context, p string) (Object, error) {
	clean, err := Clean(p)
	if err != nil {
		return Object{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[clean]
	if !ok {
		return Object{}, ErrNotFound
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, nil
}
