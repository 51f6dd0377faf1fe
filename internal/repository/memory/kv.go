package memory

import (
	"context"
	"sync"

	"github.com/Kerhoff/InSync/internal/repository"
)

type kvRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewKeyValueRepository creates a process-local store. Nothing survives a
// restart; use it for tests and throwaway runs.
func NewKeyValueRepository() repository.KeyValueStore {
	return &kvRepository{values: make(map[string]string)}
}

func (r *kvRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *kvRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

func (r *kvRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
	return nil
}
