package receipt

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// Filter filtros de listado de recepciones.
type Filter struct {
	repository.DocumentFilter
	SupplierID string
}

// GetByID devuelve la recepción o un *domain.NotFoundError.
func (p *Processor) GetByID(ctx context.Context, id string) (*entity.GoodsReceipt, error) {
	return p.receipts.GetByID(ctx, id)
}

// List lista recepciones, más recientes primero.
func (p *Processor) List(ctx context.Context, f Filter) ([]*entity.GoodsReceipt, error) {
	return p.receipts.List(ctx, f.DocumentFilter, f.SupplierID)
}

// SupplierTotal valor recibido de un proveedor.
type SupplierTotal struct {
	SupplierID string
	Receipts   int
	Value      decimal.Decimal
}

// Stats resumen de recepciones de un período.
type Stats struct {
	Drafts         int
	Validated      int
	ValidatedValue decimal.Decimal
	AverageValue   decimal.Decimal // promedio por recepción validada
	DraftValue     decimal.Decimal
	TotalLines     int
	TopSuppliers   []SupplierTotal // por valor validado, descendente
}

// GetStats agrega borradores y validados del período (storeID vacío = todas las tiendas).
// Las dos consultas corren en paralelo.
func (p *Processor) GetStats(ctx context.Context, storeID string, from, to *time.Time) (*Stats, error) {
	var drafts, validated []*entity.GoodsReceipt
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		drafts, err = p.receipts.List(gctx, repository.DocumentFilter{StoreID: storeID, Status: entity.ReceiptStatusDraft, From: from, To: to}, "")
		return err
	})
	g.Go(func() error {
		var err error
		validated, err = p.receipts.List(gctx, repository.DocumentFilter{StoreID: storeID, Status: entity.ReceiptStatusValidated, From: from, To: to}, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st := &Stats{Drafts: len(drafts), Validated: len(validated), ValidatedValue: decimal.Zero, DraftValue: decimal.Zero, AverageValue: decimal.Zero}
	for _, r := range drafts {
		st.DraftValue = st.DraftValue.Add(r.TotalValue)
		st.TotalLines += len(r.Lines)
	}
	bySupplier := map[string]*SupplierTotal{}
	for _, r := range validated {
		st.ValidatedValue = st.ValidatedValue.Add(r.TotalValue)
		st.TotalLines += len(r.Lines)
		s, ok := bySupplier[r.SupplierID]
		if !ok {
			s = &SupplierTotal{SupplierID: r.SupplierID, Value: decimal.Zero}
			bySupplier[r.SupplierID] = s
		}
		s.Receipts++
		s.Value = s.Value.Add(r.TotalValue)
	}
	if st.Validated > 0 {
		st.AverageValue = st.ValidatedValue.Div(decimal.NewFromInt(int64(st.Validated))).Round(2)
	}
	for _, s := range bySupplier {
		st.TopSuppliers = append(st.TopSuppliers, *s)
	}
	sort.Slice(st.TopSuppliers, func(i, j int) bool {
		if !st.TopSuppliers[i].Value.Equal(st.TopSuppliers[j].Value) {
			return st.TopSuppliers[i].Value.GreaterThan(st.TopSuppliers[j].Value)
		}
		return st.TopSuppliers[i].SupplierID < st.TopSuppliers[j].SupplierID
	})
	return st, nil
}
