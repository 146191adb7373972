// Package memory implementa los repositorios en memoria con control optimista de versiones.
// Sirve para desarrollo, pruebas y despliegues de una sola instancia.
package memory

import (
	"sort"
	"sync"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// Store contiene todo el estado. Lecturas con RLock; las confirmaciones de tx toman Lock.
type Store struct {
	mu        sync.RWMutex
	stock     map[string]*entity.StockLevel
	movements []*entity.MovementRecord
	receipts  map[string]*entity.GoodsReceipt
	transfers map[string]*entity.Transfer
	counts    map[string]*entity.InventoryCount
	versions  map[string]int64 // versión por clave de documento ("receipt|id", ...)
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		stock:     make(map[string]*entity.StockLevel),
		receipts:  make(map[string]*entity.GoodsReceipt),
		transfers: make(map[string]*entity.Transfer),
		counts:    make(map[string]*entity.InventoryCount),
		versions:  make(map[string]int64),
	}
}

func stockKey(storeID, productID string) string { return "stock|" + storeID + "|" + productID }
func receiptKey(id string) string               { return "receipt|" + id }
func transferKey(id string) string              { return "transfer|" + id }
func countKey(id string) string                 { return "count|" + id }

func cloneLevel(l *entity.StockLevel) *entity.StockLevel {
	c := *l
	return &c
}

// version devuelve la versión actual de una clave. Requiere mu tomado.
func (s *Store) version(key string) int64 {
	if len(key) > 6 && key[:6] == "stock|" {
		if l, ok := s.stock[key]; ok {
			return l.Version
		}
		return 0
	}
	return s.versions[key]
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// sortMovements del más reciente al más antiguo; a igual fecha decide CreatedAt y luego el ID.
func sortMovements(ms []*entity.MovementRecord) {
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].Date.Equal(ms[j].Date) {
			return ms[i].Date.After(ms[j].Date)
		}
		if !ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].CreatedAt.After(ms[j].CreatedAt)
		}
		return ms[i].ID > ms[j].ID
	})
}

func queryMovements(all []*entity.MovementRecord, filter repository.MovementFilter) []*entity.MovementRecord {
	out := make([]*entity.MovementRecord, 0)
	for _, m := range all {
		if filter.Matches(m) {
			c := *m
			out = append(out, &c)
		}
	}
	sortMovements(out)
	return paginate(out, filter.Limit, filter.Offset)
}
