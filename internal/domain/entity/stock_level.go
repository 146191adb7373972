package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain"
)

// StockLevel representa el stock de un producto en una tienda: cantidad, reservado y costo promedio (CUMP).
// Es la única fuente de verdad; solo los flujos de recepción, traslado e inventario la modifican.
type StockLevel struct {
	StoreID          string
	ProductID        string
	Quantity         decimal.Decimal
	ReservedQuantity decimal.Decimal
	AverageCost      decimal.Decimal
	LastUpdated      time.Time
	Version          int64 // control optimista; lo incrementa el repositorio en cada Upsert
}

// NewStockLevel devuelve un nivel vacío (cantidad y costo en cero) para una clave inexistente.
func NewStockLevel(storeID, productID string) *StockLevel {
	return &StockLevel{StoreID: storeID, ProductID: productID}
}

// Available cantidad disponible = Quantity - ReservedQuantity.
func (s *StockLevel) Available() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQuantity)
}

// Value valorización del stock al costo promedio.
func (s *StockLevel) Value() decimal.Decimal {
	return s.Quantity.Mul(s.AverageCost)
}

// Validate verifica los invariantes del nivel de stock. Se llama en el borde de mutación (Upsert).
func (s *StockLevel) Validate() error {
	if s.StoreID == "" || s.ProductID == "" {
		return domain.ErrInvalidInput
	}
	if s.Quantity.IsNegative() || s.ReservedQuantity.IsNegative() {
		return domain.ErrNegativeStock
	}
	if s.ReservedQuantity.GreaterThan(s.Quantity) {
		return domain.ErrNegativeStock
	}
	if s.AverageCost.IsNegative() {
		return domain.ErrInvalidInput
	}
	return nil
}
