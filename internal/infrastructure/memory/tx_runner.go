package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// DefaultMaxAttempts reintentos de una transacción ante conflicto de versión.
const DefaultMaxAttempts = 5

// TxRunner implementa inventory.TxRunner con control optimista: la tx acumula escrituras
// y versiones leídas; al confirmar verifica que nada cambió y aplica todo bajo el lock.
type TxRunner struct {
	s           *Store
	maxAttempts int
}

// TxRunner devuelve el ejecutor de transacciones del almacén.
func (s *Store) TxRunner() *TxRunner {
	return &TxRunner{s: s, maxAttempts: DefaultMaxAttempts}
}

// Run ejecuta fn y confirma. Ante domain.ErrConflict repite fn completa con una tx nueva.
func (r *TxRunner) Run(ctx context.Context, fn func(tx inventory.Repos) error) error {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		t := newTx(r.s)
		if err = fn(t.repos()); err != nil {
			return err
		}
		if err = t.commit(); err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("transacción abortada tras %d intentos: %w", r.maxAttempts, err)
}

type tx struct {
	s         *Store
	reads     map[string]int64
	levels    map[string]*entity.StockLevel
	movements []*entity.MovementRecord
	receipts  map[string]*entity.GoodsReceipt
	transfers map[string]*entity.Transfer
	counts    map[string]*entity.InventoryCount
}

func newTx(s *Store) *tx {
	return &tx{
		s:         s,
		reads:     make(map[string]int64),
		levels:    make(map[string]*entity.StockLevel),
		receipts:  make(map[string]*entity.GoodsReceipt),
		transfers: make(map[string]*entity.Transfer),
		counts:    make(map[string]*entity.InventoryCount),
	}
}

func (t *tx) repos() inventory.Repos {
	return inventory.Repos{
		Stock:     txStock{t},
		Movements: txMovements{t},
		Receipts:  txReceipts{t},
		Transfers: txTransfers{t},
		Counts:    txCounts{t},
	}
}

// observe registra la versión vista la primera vez que se lee una clave. Requiere RLock.
func (t *tx) observe(key string) {
	if _, seen := t.reads[key]; !seen {
		t.reads[key] = t.s.version(key)
	}
}

func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for key, v := range t.reads {
		if cur := t.s.version(key); cur != v {
			return fmt.Errorf("%s cambió (versión %d, leída %d): %w", key, cur, v, domain.ErrConflict)
		}
	}
	for key, l := range t.levels {
		c := cloneLevel(l)
		c.Version = t.s.version(key) + 1
		t.s.stock[key] = c
	}
	for id, doc := range t.receipts {
		t.s.receipts[id] = doc
		t.s.versions[receiptKey(id)]++
	}
	for id, doc := range t.transfers {
		t.s.transfers[id] = doc
		t.s.versions[transferKey(id)]++
	}
	for id, doc := range t.counts {
		t.s.counts[id] = doc
		t.s.versions[countKey(id)]++
	}
	t.s.movements = append(t.s.movements, t.movements...)
	return nil
}

// ─── Stock ─────────────────────────────────────────────────────────────────────

type txStock struct{ t *tx }

func (r txStock) Get(_ context.Context, storeID, productID string) (*entity.StockLevel, error) {
	key := stockKey(storeID, productID)
	if l, ok := r.t.levels[key]; ok {
		return cloneLevel(l), nil
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	r.t.observe(key)
	if l, ok := r.t.s.stock[key]; ok {
		return cloneLevel(l), nil
	}
	return entity.NewStockLevel(storeID, productID), nil
}

func (r txStock) GetForUpdate(ctx context.Context, storeID, productID string) (*entity.StockLevel, error) {
	return r.Get(ctx, storeID, productID)
}

func (r txStock) Upsert(_ context.Context, level *entity.StockLevel) error {
	if err := level.Validate(); err != nil {
		return fmt.Errorf("stock %s/%s: %w", level.StoreID, level.ProductID, err)
	}
	r.t.levels[stockKey(level.StoreID, level.ProductID)] = cloneLevel(level)
	return nil
}

func (r txStock) ListByStore(_ context.Context, storeID string) ([]*entity.StockLevel, error) {
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	byKey := make(map[string]*entity.StockLevel)
	for key, l := range r.t.s.stock {
		if l.StoreID == storeID {
			byKey[key] = cloneLevel(l)
		}
	}
	for key, l := range r.t.levels {
		if l.StoreID == storeID {
			byKey[key] = cloneLevel(l)
		}
	}
	out := make([]*entity.StockLevel, 0, len(byKey))
	for _, l := range byKey {
		out = append(out, l)
	}
	return out, nil
}

// ─── Movimientos ───────────────────────────────────────────────────────────────

type txMovements struct{ t *tx }

func (r txMovements) Append(_ context.Context, movements ...*entity.MovementRecord) error {
	for _, m := range movements {
		c := *m
		r.t.movements = append(r.t.movements, &c)
	}
	return nil
}

func (r txMovements) Query(_ context.Context, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	r.t.s.mu.RLock()
	all := append(append([]*entity.MovementRecord(nil), r.t.s.movements...), r.t.movements...)
	r.t.s.mu.RUnlock()
	return queryMovements(all, filter), nil
}

// ─── Documentos ────────────────────────────────────────────────────────────────

type txReceipts struct{ t *tx }

func (r txReceipts) Save(_ context.Context, doc *entity.GoodsReceipt) error {
	r.t.receipts[doc.ID] = doc.Clone()
	return nil
}

func (r txReceipts) GetByID(_ context.Context, id string) (*entity.GoodsReceipt, error) {
	if doc, ok := r.t.receipts[id]; ok {
		return doc.Clone(), nil
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	r.t.observe(receiptKey(id))
	if doc, ok := r.t.s.receipts[id]; ok {
		return doc.Clone(), nil
	}
	return nil, domain.NewNotFound("goods_receipt", id)
}

func (r txReceipts) GetForUpdate(ctx context.Context, id string) (*entity.GoodsReceipt, error) {
	return r.GetByID(ctx, id)
}

func (r txReceipts) List(ctx context.Context, f repository.DocumentFilter, supplierID string) ([]*entity.GoodsReceipt, error) {
	return r.t.s.Receipts().List(ctx, f, supplierID)
}

type txTransfers struct{ t *tx }

func (r txTransfers) Save(_ context.Context, doc *entity.Transfer) error {
	r.t.transfers[doc.ID] = doc.Clone()
	return nil
}

func (r txTransfers) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	if doc, ok := r.t.transfers[id]; ok {
		return doc.Clone(), nil
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	r.t.observe(transferKey(id))
	if doc, ok := r.t.s.transfers[id]; ok {
		return doc.Clone(), nil
	}
	return nil, domain.NewNotFound("transfer", id)
}

func (r txTransfers) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r txTransfers) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Transfer, error) {
	return r.t.s.Transfers().List(ctx, f)
}

type txCounts struct{ t *tx }

func (r txCounts) Save(_ context.Context, doc *entity.InventoryCount) error {
	r.t.counts[doc.ID] = doc.Clone()
	return nil
}

func (r txCounts) GetByID(_ context.Context, id string) (*entity.InventoryCount, error) {
	if doc, ok := r.t.counts[id]; ok {
		return doc.Clone(), nil
	}
	r.t.s.mu.RLock()
	defer r.t.s.mu.RUnlock()
	r.t.observe(countKey(id))
	if doc, ok := r.t.s.counts[id]; ok {
		return doc.Clone(), nil
	}
	return nil, domain.NewNotFound("inventory_count", id)
}

func (r txCounts) GetForUpdate(ctx context.Context, id string) (*entity.InventoryCount, error) {
	return r.GetByID(ctx, id)
}

func (r txCounts) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.InventoryCount, error) {
	return r.t.s.Counts().List(ctx, f)
}
