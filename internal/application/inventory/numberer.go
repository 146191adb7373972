package inventory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	domaininv "github.com/jhoicas/stock-core/internal/domain/inventory"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// Numberer asigna números BR/TR/INV-YYYY-NNNN a partir de un SequenceRepository atómico.
// Con resetYearly el contador es por (prefijo, año); si no, es uno solo por prefijo.
type Numberer struct {
	seq         repository.SequenceRepository
	resetYearly bool
}

// NewNumberer construye el numerador.
func NewNumberer(seq repository.SequenceRepository, resetYearly bool) *Numberer {
	return &Numberer{seq: seq, resetYearly: resetYearly}
}

// Scope clave del contador para el prefijo y año dados.
func (n *Numberer) Scope(prefix string, year int) string {
	if n.resetYearly {
		return prefix + "-" + strconv.Itoa(year)
	}
	return prefix
}

// Next reserva el siguiente número. Un número reservado no se reutiliza aunque la operación falle.
func (n *Numberer) Next(ctx context.Context, prefix string, at time.Time) (string, error) {
	seq, err := n.seq.Next(ctx, n.Scope(prefix, at.Year()))
	if err != nil {
		return "", fmt.Errorf("numeración %s: %w", prefix, err)
	}
	return domaininv.FormatDocumentNumber(prefix, at.Year(), seq), nil
}
