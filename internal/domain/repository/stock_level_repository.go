package repository

import (
	"context"

	"github.com/jhoicas/stock-core/internal/domain/entity"
)

// StockLevelRepository puerto para consultar/actualizar stock por tienda+producto.
// Upsert solo se invoca dentro de las transacciones de los flujos (recepción, traslado, inventario).
type StockLevelRepository interface {
	// Get devuelve el nivel; si no existe devuelve un nivel en cero (nunca ErrNotFound).
	Get(ctx context.Context, storeID, productID string) (*entity.StockLevel, error)
	// GetForUpdate igual que Get pero bloquea la fila (SELECT FOR UPDATE) o registra su versión.
	GetForUpdate(ctx context.Context, storeID, productID string) (*entity.StockLevel, error)
	// Upsert rechaza cantidades negativas con domain.ErrNegativeStock.
	Upsert(ctx context.Context, level *entity.StockLevel) error
	ListByStore(ctx context.Context, storeID string) ([]*entity.StockLevel, error)
}
