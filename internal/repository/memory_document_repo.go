package repository

import (
	"context"
	"strings"
	"sync"
)

type MemoryDocumentRepository struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{items: make(map[string][]byte)}
}

func (r *MemoryDocumentRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[strings.TrimSpace(key)]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return append([]byte(nil), v...), nil
}

func (r *MemoryDocumentRepository) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[strings.TrimSpace(key)] = append([]byte(nil), value...)
	return nil
}
