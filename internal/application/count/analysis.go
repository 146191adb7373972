package count

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// GetByID devuelve el inventario o un *domain.NotFoundError.
func (r *Reconciler) GetByID(ctx context.Context, id string) (*entity.InventoryCount, error) {
	return r.counts.GetByID(ctx, id)
}

// List lista inventarios, más recientes primero.
func (r *Reconciler) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.InventoryCount, error) {
	return r.counts.List(ctx, f)
}

// VarianceAnalysis análisis de diferencias de un inventario.
type VarianceAnalysis struct {
	CountID            string
	Number             string
	Status             string
	Lines              int
	CountedLines       int
	LinesWithVariance  int
	AccuracyRate       decimal.Decimal // líneas contadas sin diferencia / líneas contadas (0..1)
	TotalVariance      decimal.Decimal
	TotalVarianceValue decimal.Decimal
	SurplusValue       decimal.Decimal // suma de valores positivos
	ShortageValue      decimal.Decimal // suma de valores negativos
	TheoreticalValue   decimal.Decimal
	Ranked             []entity.InventoryCountLine // contadas con diferencia, por |valor| descendente
}

// GetVarianceAnalysis totales, sobrantes/faltantes, exactitud y ranking de líneas por valor.
func (r *Reconciler) GetVarianceAnalysis(ctx context.Context, id string) (*VarianceAnalysis, error) {
	c, err := r.counts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return Analyze(c), nil
}

// Analyze calcula el análisis sobre un inventario ya cargado.
func Analyze(c *entity.InventoryCount) *VarianceAnalysis {
	a := &VarianceAnalysis{
		CountID:            c.ID,
		Number:             c.Number,
		Status:             c.Status,
		Lines:              len(c.Lines),
		AccuracyRate:       decimal.Zero,
		TotalVariance:      decimal.Zero,
		TotalVarianceValue: decimal.Zero,
		SurplusValue:       decimal.Zero,
		ShortageValue:      decimal.Zero,
		TheoreticalValue:   decimal.Zero,
		Ranked:             []entity.InventoryCountLine{},
	}
	for _, l := range c.Lines {
		a.TheoreticalValue = a.TheoreticalValue.Add(l.TheoreticalQuantity.Mul(l.AverageCost))
		if !l.Counted() {
			continue
		}
		a.CountedLines++
		if l.Variance == nil || l.Variance.IsZero() {
			continue
		}
		a.LinesWithVariance++
		a.TotalVariance = a.TotalVariance.Add(*l.Variance)
		a.TotalVarianceValue = a.TotalVarianceValue.Add(*l.VarianceValue)
		if l.VarianceValue.IsPositive() {
			a.SurplusValue = a.SurplusValue.Add(*l.VarianceValue)
		} else {
			a.ShortageValue = a.ShortageValue.Add(*l.VarianceValue)
		}
		a.Ranked = append(a.Ranked, l)
	}
	if a.CountedLines > 0 {
		exact := decimal.NewFromInt(int64(a.CountedLines - a.LinesWithVariance))
		a.AccuracyRate = exact.Div(decimal.NewFromInt(int64(a.CountedLines))).Round(4)
	}
	sort.SliceStable(a.Ranked, func(i, j int) bool {
		return a.Ranked[i].VarianceValue.Abs().GreaterThan(a.Ranked[j].VarianceValue.Abs())
	})
	return a
}
