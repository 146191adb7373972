package memory

import (
	"context"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// MovementRepository libro append-only en memoria.
type MovementRepository struct {
	s *Store
}

// Movements devuelve el repositorio de movimientos del almacén.
func (s *Store) Movements() *MovementRepository {
	return &MovementRepository{s: s}
}

func (r *MovementRepository) Append(_ context.Context, movements ...*entity.MovementRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range movements {
		c := *m
		r.s.movements = append(r.s.movements, &c)
	}
	return nil
}

func (r *MovementRepository) Query(_ context.Context, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return queryMovements(r.s.movements, filter), nil
}
