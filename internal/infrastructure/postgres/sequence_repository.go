package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-core/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contadores por ámbito en la tabla document_sequences.
// Se usa con el pool (fuera de la tx del documento): un número consumido no se devuelve.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el repositorio.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

func (r *SequenceRepo) Next(ctx context.Context, scope string) (int64, error) {
	query := `
		INSERT INTO document_sequences (scope, last_value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, scope).Scan(&n); err != nil {
		return 0, fmt.Errorf("secuencia %s: %w", scope, err)
	}
	return n, nil
}
