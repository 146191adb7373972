package memory

import (
	"context"
	"sync"
)

// SequenceRepository contador atómico por ámbito.
type SequenceRepository struct {
	mu   sync.Mutex
	next map[string]int64
}

// NewSequenceRepository crea contadores vacíos.
func NewSequenceRepository() *SequenceRepository {
	return &SequenceRepository{next: make(map[string]int64)}
}

func (r *SequenceRepository) Next(_ context.Context, scope string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next[scope]++
	return r.next[scope], nil
}
