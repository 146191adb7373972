package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

func inRange(t time.Time, f repository.DocumentFilter) bool {
	if f.From != nil && t.Before(*f.From) {
		return false
	}
	if f.To != nil && t.After(*f.To) {
		return false
	}
	return true
}

// ─── Recepciones ───────────────────────────────────────────────────────────────

// GoodsReceiptRepository acceso directo a recepciones.
type GoodsReceiptRepository struct{ s *Store }

// Receipts devuelve el repositorio de recepciones.
func (s *Store) Receipts() *GoodsReceiptRepository { return &GoodsReceiptRepository{s: s} }

func (r *GoodsReceiptRepository) Save(_ context.Context, receipt *entity.GoodsReceipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.receipts[receipt.ID] = receipt.Clone()
	r.s.versions[receiptKey(receipt.ID)]++
	return nil
}

func (r *GoodsReceiptRepository) GetByID(_ context.Context, id string) (*entity.GoodsReceipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if doc, ok := r.s.receipts[id]; ok {
		return doc.Clone(), nil
	}
	return nil, domain.NewNotFound("goods_receipt", id)
}

func (r *GoodsReceiptRepository) GetForUpdate(ctx context.Context, id string) (*entity.GoodsReceipt, error) {
	return r.GetByID(ctx, id)
}

func (r *GoodsReceiptRepository) List(_ context.Context, f repository.DocumentFilter, supplierID string) ([]*entity.GoodsReceipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.GoodsReceipt, 0)
	for _, doc := range r.s.receipts {
		if f.StoreID != "" && doc.StoreID != f.StoreID {
			continue
		}
		if f.Status != "" && doc.Status != f.Status {
			continue
		}
		if f.Number != "" && doc.Number != f.Number {
			continue
		}
		if supplierID != "" && doc.SupplierID != supplierID {
			continue
		}
		if !inRange(doc.DateReceived, f) {
			continue
		}
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].Number > out[j].Number)
	})
	return paginate(out, f.Limit, f.Offset), nil
}

// ─── Traslados ─────────────────────────────────────────────────────────────────

// TransferRepository acceso directo a traslados.
type TransferRepository struct{ s *Store }

// Transfers devuelve el repositorio de traslados.
func (s *Store) Transfers() *TransferRepository { return &TransferRepository{s: s} }

func (r *TransferRepository) Save(_ context.Context, t *entity.Transfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.transfers[t.ID] = t.Clone()
	r.s.versions[transferKey(t.ID)]++
	return nil
}

func (r *TransferRepository) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if doc, ok := r.s.transfers[id]; ok {
		return doc.Clone(), nil
	}
	return nil, domain.NewNotFound("transfer", id)
}

func (r *TransferRepository) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r *TransferRepository) List(_ context.Context, f repository.DocumentFilter) ([]*entity.Transfer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Transfer, 0)
	for _, doc := range r.s.transfers {
		if f.StoreID != "" && doc.SourceStoreID != f.StoreID && doc.DestinationStoreID != f.StoreID {
			continue
		}
		if f.Status != "" && doc.Status != f.Status {
			continue
		}
		if f.Number != "" && doc.Number != f.Number {
			continue
		}
		if !inRange(doc.CreatedAt, f) {
			continue
		}
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].Number > out[j].Number)
	})
	return paginate(out, f.Limit, f.Offset), nil
}

// ─── Inventarios ───────────────────────────────────────────────────────────────

// InventoryCountRepository acceso directo a inventarios físicos.
type InventoryCountRepository struct{ s *Store }

// Counts devuelve el repositorio de inventarios.
func (s *Store) Counts() *InventoryCountRepository { return &InventoryCountRepository{s: s} }

func (r *InventoryCountRepository) Save(_ context.Context, c *entity.InventoryCount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.counts[c.ID] = c.Clone()
	r.s.versions[countKey(c.ID)]++
	return nil
}

func (r *InventoryCountRepository) GetByID(_ context.Context, id string) (*entity.InventoryCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if doc, ok := r.s.counts[id]; ok {
		return doc.Clone(), nil
	}
	return nil, domain.NewNotFound("inventory_count", id)
}

func (r *InventoryCountRepository) GetForUpdate(ctx context.Context, id string) (*entity.InventoryCount, error) {
	return r.GetByID(ctx, id)
}

func (r *InventoryCountRepository) List(_ context.Context, f repository.DocumentFilter) ([]*entity.InventoryCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.InventoryCount, 0)
	for _, doc := range r.s.counts {
		if f.StoreID != "" && doc.StoreID != f.StoreID {
			continue
		}
		if f.Status != "" && doc.Status != f.Status {
			continue
		}
		if f.Number != "" && doc.Number != f.Number {
			continue
		}
		if !inRange(doc.Date, f) {
			continue
		}
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].Number > out[j].Number)
	})
	return paginate(out, f.Limit, f.Offset), nil
}
