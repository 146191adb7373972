package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// StockService lecturas de stock (sin bloqueo). Las escrituras pasan por StockMutator en los flujos.
type StockService struct {
	stock  repository.StockLevelRepository
	stores repository.StoreRepository
}

// NewStockService construye el servicio; stores puede ser nil.
func NewStockService(stock repository.StockLevelRepository, stores repository.StoreRepository) *StockService {
	return &StockService{stock: stock, stores: stores}
}

// GetStockLevel devuelve el nivel de un producto en una tienda (cero si no existe).
func (s *StockService) GetStockLevel(ctx context.Context, storeID, productID string) (*entity.StockLevel, error) {
	if err := s.checkStore(ctx, storeID); err != nil {
		return nil, err
	}
	return s.stock.Get(ctx, storeID, productID)
}

// ListStockLevels lista los niveles de una tienda ordenados por producto.
func (s *StockService) ListStockLevels(ctx context.Context, storeID string) ([]*entity.StockLevel, error) {
	if err := s.checkStore(ctx, storeID); err != nil {
		return nil, err
	}
	levels, err := s.stock.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ProductID < levels[j].ProductID })
	return levels, nil
}

func (s *StockService) checkStore(ctx context.Context, storeID string) error {
	if s.stores == nil {
		return nil
	}
	_, err := s.stores.GetByID(ctx, storeID)
	return err
}
