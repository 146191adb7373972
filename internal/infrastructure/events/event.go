package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain/entity"
)

// MovementEvent representación pública (JSON) de un movimiento confirmado.
type MovementEvent struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Type          string          `json:"type"`
	StoreID       string          `json:"store_id"`
	ProductID     string          `json:"product_id"`
	QuantityDelta decimal.Decimal `json:"quantity_delta"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Value         decimal.Decimal `json:"value"`
	ReferenceID   string          `json:"reference_id"`
	ReferenceType string          `json:"reference_type"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	Comment       string          `json:"comment,omitempty"`
}

// FromRecord convierte un MovementRecord en evento.
func FromRecord(m *entity.MovementRecord) MovementEvent {
	return MovementEvent{
		ID:            m.ID,
		Date:          m.Date,
		Type:          string(m.Type),
		StoreID:       m.StoreID,
		ProductID:     m.ProductID,
		QuantityDelta: m.QuantityDelta,
		UnitCost:      m.UnitCost,
		Value:         m.Value,
		ReferenceID:   m.ReferenceID,
		ReferenceType: m.ReferenceType,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
		Comment:       m.Comment,
	}
}

// RoutingKey clave de ruteo por tipo: stock.movement.arrival, stock.movement.transfer_out, ...
func RoutingKey(t entity.MovementType) string {
	return "stock.movement." + string(t)
}
