package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-core/internal/domain/entity"
)

// DocumentFilter filtros comunes de listado de documentos.
type DocumentFilter struct {
	StoreID string // en traslados coincide con origen o destino
	Status  string
	Number  string // número exacto del documento (BR-2026-0001)
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// GoodsReceiptRepository persistencia de recepciones de mercancía.
type GoodsReceiptRepository interface {
	// Save inserta o reemplaza el documento completo (cabecera + líneas).
	Save(ctx context.Context, receipt *entity.GoodsReceipt) error
	GetByID(ctx context.Context, id string) (*entity.GoodsReceipt, error)
	// GetForUpdate bloquea el documento dentro de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.GoodsReceipt, error)
	List(ctx context.Context, filter DocumentFilter, supplierID string) ([]*entity.GoodsReceipt, error)
}

// TransferRepository persistencia de traslados.
type TransferRepository interface {
	Save(ctx context.Context, transfer *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error)
	List(ctx context.Context, filter DocumentFilter) ([]*entity.Transfer, error)
}

// InventoryCountRepository persistencia de inventarios físicos.
type InventoryCountRepository interface {
	Save(ctx context.Context, count *entity.InventoryCount) error
	GetByID(ctx context.Context, id string) (*entity.InventoryCount, error)
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryCount, error)
	List(ctx context.Context, filter DocumentFilter) ([]*entity.InventoryCount, error)
}

// SequenceRepository generador atómico de secuencias por ámbito (p.ej. "BR-2026" o "TR").
type SequenceRepository interface {
	Next(ctx context.Context, scope string) (int64, error)
}
