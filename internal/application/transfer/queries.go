package transfer

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// GetByID devuelve el traslado o un *domain.NotFoundError.
func (o *Orchestrator) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	return o.transfers.GetByID(ctx, id)
}

// List lista traslados; StoreID coincide con origen o destino.
func (o *Orchestrator) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Transfer, error) {
	return o.transfers.List(ctx, f)
}

// Stats resumen de traslados.
type Stats struct {
	InTransit      int
	Completed      int
	WithVariance   int
	Cancelled      int
	InTransitValue decimal.Decimal // valor despachado aún no recibido
	SentQuantity   decimal.Decimal // traslados recibidos
	ReceivedQty    decimal.Decimal
	VarianceQty    decimal.Decimal // suma con signo de las diferencias
	VarianceRate   decimal.Decimal // recibidos con diferencia / recibidos (0..1)
}

var statuses = []string{
	entity.TransferStatusInTransit,
	entity.TransferStatusCompleted,
	entity.TransferStatusCompletedWithVariance,
	entity.TransferStatusCancelled,
}

// GetStats agrega por estado; las consultas por estado corren en paralelo.
func (o *Orchestrator) GetStats(ctx context.Context, f repository.DocumentFilter) (*Stats, error) {
	f.Limit, f.Offset = 0, 0
	lists := make([][]*entity.Transfer, len(statuses))
	g, gctx := errgroup.WithContext(ctx)
	for i, status := range statuses {
		sf := f
		sf.Status = status
		g.Go(func() error {
			var err error
			lists[i], err = o.transfers.List(gctx, sf)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st := &Stats{
		InTransit:      len(lists[0]),
		Completed:      len(lists[1]),
		WithVariance:   len(lists[2]),
		Cancelled:      len(lists[3]),
		InTransitValue: decimal.Zero,
		SentQuantity:   decimal.Zero,
		ReceivedQty:    decimal.Zero,
		VarianceQty:    decimal.Zero,
		VarianceRate:   decimal.Zero,
	}
	for _, t := range lists[0] {
		st.InTransitValue = st.InTransitValue.Add(t.TotalValue())
	}
	for _, t := range append(append([]*entity.Transfer(nil), lists[1]...), lists[2]...) {
		for _, l := range t.Lines {
			st.SentQuantity = st.SentQuantity.Add(l.QuantitySent)
			if l.QuantityReceived != nil {
				st.ReceivedQty = st.ReceivedQty.Add(*l.QuantityReceived)
			}
			if l.Variance != nil {
				st.VarianceQty = st.VarianceQty.Add(*l.Variance)
			}
		}
	}
	if received := st.Completed + st.WithVariance; received > 0 {
		st.VarianceRate = decimal.NewFromInt(int64(st.WithVariance)).Div(decimal.NewFromInt(int64(received))).Round(4)
	}
	return st, nil
}

// VarianceLine diferencia de una línea recibida.
type VarianceLine struct {
	TransferID         string
	Number             string
	SourceStoreID      string
	DestinationStoreID string
	ProductID          string
	QuantitySent       decimal.Decimal
	QuantityReceived   decimal.Decimal
	Variance           decimal.Decimal
	VarianceValue      decimal.Decimal // Variance * UnitCost
	ReceivedAt         *time.Time
}

// VarianceReport diferencias de recepción, ordenadas por |valor| descendente.
type VarianceReport struct {
	Lines         []VarianceLine
	TotalVariance decimal.Decimal
	TotalValue    decimal.Decimal
}

// GetVarianceReport lista las líneas con diferencia de los traslados completed_with_variance.
func (o *Orchestrator) GetVarianceReport(ctx context.Context, f repository.DocumentFilter) (*VarianceReport, error) {
	f.Status = entity.TransferStatusCompletedWithVariance
	f.Limit, f.Offset = 0, 0
	transfers, err := o.transfers.List(ctx, f)
	if err != nil {
		return nil, err
	}
	rep := &VarianceReport{Lines: []VarianceLine{}, TotalVariance: decimal.Zero, TotalValue: decimal.Zero}
	for _, t := range transfers {
		for _, l := range t.Lines {
			if l.Variance == nil || l.Variance.IsZero() {
				continue
			}
			vl := VarianceLine{
				TransferID:         t.ID,
				Number:             t.Number,
				SourceStoreID:      t.SourceStoreID,
				DestinationStoreID: t.DestinationStoreID,
				ProductID:          l.ProductID,
				QuantitySent:       l.QuantitySent,
				QuantityReceived:   *l.QuantityReceived,
				Variance:           *l.Variance,
				VarianceValue:      l.Variance.Mul(l.UnitCost),
				ReceivedAt:         t.ReceivedAt,
			}
			rep.Lines = append(rep.Lines, vl)
			rep.TotalVariance = rep.TotalVariance.Add(vl.Variance)
			rep.TotalValue = rep.TotalValue.Add(vl.VarianceValue)
		}
	}
	sort.SliceStable(rep.Lines, func(i, j int) bool {
		return rep.Lines[i].VarianceValue.Abs().GreaterThan(rep.Lines[j].VarianceValue.Abs())
	})
	return rep, nil
}
