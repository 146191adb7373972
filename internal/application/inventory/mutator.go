package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-core/internal/domain/inventory"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// StockMutator única vía de modificación de StockLevel. Siempre se usa dentro de TxRunner.Run:
// bloquea la fila (GetForUpdate), aplica el cambio y hace Upsert.
type StockMutator struct {
	now Clock
}

// NewStockMutator construye el mutador; now puede ser nil.
func NewStockMutator(now Clock) StockMutator {
	if now == nil {
		now = time.Now
	}
	return StockMutator{now: now}
}

// Receive suma qty al stock y recalcula el CUMP con el costo entrante.
func (m StockMutator) Receive(ctx context.Context, stock repository.StockLevelRepository, storeID, productID string, qty, unitCost decimal.Decimal) (*entity.StockLevel, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("entrada de %s en %s: %w", productID, storeID, domain.ErrInvalidInput)
	}
	level, err := stock.GetForUpdate(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	level.AverageCost = domaininv.CostCalculator(level.Quantity, level.AverageCost, qty, unitCost)
	level.Quantity = level.Quantity.Add(qty)
	level.LastUpdated = m.now()
	if err := stock.Upsert(ctx, level); err != nil {
		return nil, err
	}
	return level, nil
}

// Issue descuenta qty del disponible; el costo promedio no cambia.
func (m StockMutator) Issue(ctx context.Context, stock repository.StockLevelRepository, storeID, productID string, qty decimal.Decimal) (*entity.StockLevel, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("salida de %s en %s: %w", productID, storeID, domain.ErrInvalidInput)
	}
	level, err := stock.GetForUpdate(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	if level.Available().LessThan(qty) {
		return nil, fmt.Errorf("%s en %s: disponible %s, solicitado %s, faltan %s: %w",
			productID, storeID, level.Available(), qty, qty.Sub(level.Available()), domain.ErrInsufficientStock)
	}
	level.Quantity = level.Quantity.Sub(qty)
	level.LastUpdated = m.now()
	if err := stock.Upsert(ctx, level); err != nil {
		return nil, err
	}
	return level, nil
}

// SetQuantity fija la cantidad (ajuste de inventario) y devuelve el delta aplicado con signo.
// No toca el costo promedio.
func (m StockMutator) SetQuantity(ctx context.Context, stock repository.StockLevelRepository, storeID, productID string, qty decimal.Decimal) (*entity.StockLevel, decimal.Decimal, error) {
	if qty.IsNegative() {
		return nil, decimal.Zero, fmt.Errorf("ajuste de %s en %s: %w", productID, storeID, domain.ErrNegativeStock)
	}
	level, err := stock.GetForUpdate(ctx, storeID, productID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	delta := qty.Sub(level.Quantity)
	if delta.IsZero() {
		return level, delta, nil
	}
	level.Quantity = qty
	level.LastUpdated = m.now()
	if err := stock.Upsert(ctx, level); err != nil {
		return nil, decimal.Zero, err
	}
	return level, delta, nil
}

// MovementInput datos para construir un MovementRecord.
type MovementInput struct {
	Type          entity.MovementType
	StoreID       string
	ProductID     string
	QuantityDelta decimal.Decimal
	UnitCost      decimal.Decimal
	ReferenceID   string
	ReferenceType string
	CreatedBy     string
	Comment       string
}

// NewMovement arma el registro inmutable con ID y Value = delta * costo.
func (m StockMutator) NewMovement(in MovementInput) *entity.MovementRecord {
	now := m.now()
	return &entity.MovementRecord{
		ID:            uuid.New().String(),
		Date:          now,
		Type:          in.Type,
		StoreID:       in.StoreID,
		ProductID:     in.ProductID,
		QuantityDelta: in.QuantityDelta,
		UnitCost:      in.UnitCost,
		Value:         in.QuantityDelta.Mul(in.UnitCost),
		ReferenceID:   in.ReferenceID,
		ReferenceType: in.ReferenceType,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
		Comment:       in.Comment,
	}
}
