package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
)

// StockLevelRepository acceso directo (fuera de transacción) a los niveles de stock.
type StockLevelRepository struct {
	s *Store
}

// StockLevels devuelve el repositorio de stock del almacén.
func (s *Store) StockLevels() *StockLevelRepository {
	return &StockLevelRepository{s: s}
}

func (r *StockLevelRepository) Get(_ context.Context, storeID, productID string) (*entity.StockLevel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.stock[stockKey(storeID, productID)]; ok {
		return cloneLevel(l), nil
	}
	return entity.NewStockLevel(storeID, productID), nil
}

// GetForUpdate fuera de una transacción no bloquea; equivale a Get.
func (r *StockLevelRepository) GetForUpdate(ctx context.Context, storeID, productID string) (*entity.StockLevel, error) {
	return r.Get(ctx, storeID, productID)
}

// Upsert escribe directamente con chequeo de versión (lo usa el seeder de saldos iniciales).
func (r *StockLevelRepository) Upsert(_ context.Context, level *entity.StockLevel) error {
	if err := level.Validate(); err != nil {
		return fmt.Errorf("stock %s/%s: %w", level.StoreID, level.ProductID, err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.putLevel(level, level.Version)
}

func (r *StockLevelRepository) ListByStore(_ context.Context, storeID string) ([]*entity.StockLevel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.StockLevel, 0)
	for _, l := range r.s.stock {
		if l.StoreID == storeID {
			out = append(out, cloneLevel(l))
		}
	}
	return out, nil
}

// putLevel guarda el nivel si la versión esperada coincide. Requiere mu tomado en escritura.
func (s *Store) putLevel(level *entity.StockLevel, expected int64) error {
	key := stockKey(level.StoreID, level.ProductID)
	if cur := s.version(key); cur != expected {
		return fmt.Errorf("stock %s/%s versión %d, esperada %d: %w", level.StoreID, level.ProductID, cur, expected, domain.ErrConflict)
	}
	c := cloneLevel(level)
	c.Version = expected + 1
	s.stock[key] = c
	level.Version = c.Version
	return nil
}
