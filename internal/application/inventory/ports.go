package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Stock     repository.StockLevelRepository
	Movements repository.MovementRepository
	Receipts  repository.GoodsReceiptRepository
	Transfers repository.TransferRepository
	Counts    repository.InventoryCountRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error no se aplica nada (rollback); la confirmación es todo o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx Repos) error) error
}

// EventPublisher sumidero de eventos de auditoría: recibe los movimientos ya confirmados.
type EventPublisher interface {
	Publish(ctx context.Context, movements []*entity.MovementRecord) error
}

// Clock fuente de la hora actual (inyectable en tests).
type Clock func() time.Time

// Catalogs búsquedas de solo lectura; cualquier campo puede ser nil (no se verifica existencia).
type Catalogs struct {
	Products  repository.ProductRepository
	Stores    repository.StoreRepository
	Suppliers repository.SupplierRepository
}
