package repository

import (
	"context"

	"github.com/jhoicas/stock-core/internal/domain/entity"
)

// Catálogos de referencia: son de solo lectura, los administra otro sistema.

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Store, error)
}

type SupplierRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
}
