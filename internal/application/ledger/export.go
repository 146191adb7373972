package ledger

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// Formatos de exportación.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var csvHeader = []string{
	"id", "date", "type", "store_id", "product_id", "quantity_delta", "unit_cost", "value",
	"reference_type", "reference_id", "created_by", "created_at", "comment",
}

// movementJSON forma pública de un movimiento exportado.
type movementJSON struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Type          string `json:"type"`
	StoreID       string `json:"store_id"`
	ProductID     string `json:"product_id"`
	QuantityDelta string `json:"quantity_delta"`
	UnitCost      string `json:"unit_cost"`
	Value         string `json:"value"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`
	CreatedBy     string `json:"created_by"`
	CreatedAt     string `json:"created_at"`
	Comment       string `json:"comment,omitempty"`
}

func toJSON(m *entity.MovementRecord) movementJSON {
	return movementJSON{
		ID:            m.ID,
		Date:          m.Date.UTC().Format(time.RFC3339),
		Type:          string(m.Type),
		StoreID:       m.StoreID,
		ProductID:     m.ProductID,
		QuantityDelta: m.QuantityDelta.String(),
		UnitCost:      m.UnitCost.String(),
		Value:         m.Value.String(),
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt.UTC().Format(time.RFC3339),
		Comment:       m.Comment,
	}
}

// Export escribe los movimientos del filtro en csv o json. Devuelve cuántos se exportaron.
func (s *Service) Export(ctx context.Context, f repository.MovementFilter, format string, w io.Writer) (int, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatCSV && format != FormatJSON {
		return 0, fmt.Errorf("exportar %q: %w", format, domain.ErrUnsupportedFormat)
	}
	ms, err := s.movements.Query(ctx, f)
	if err != nil {
		return 0, err
	}
	if format == FormatJSON {
		return len(ms), WriteJSON(w, ms)
	}
	return len(ms), WriteCSV(w, ms)
}

// WriteCSV una fila por movimiento, con cabecera.
func WriteCSV(w io.Writer, ms []*entity.MovementRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, m := range ms {
		j := toJSON(m)
		row := []string{j.ID, j.Date, j.Type, j.StoreID, j.ProductID, j.QuantityDelta, j.UnitCost, j.Value,
			j.ReferenceType, j.ReferenceID, j.CreatedBy, j.CreatedAt, j.Comment}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON arreglo JSON de movimientos.
func WriteJSON(w io.Writer, ms []*entity.MovementRecord) error {
	out := make([]movementJSON, 0, len(ms))
	for _, m := range ms {
		out = append(out, toJSON(m))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
