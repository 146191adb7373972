// Package ledger expone el libro de trazabilidad: consultas, reportes agregados,
// detección de anomalías (advertencias, nunca bloquean) y exportación.
package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// Service TraceabilityLedger (lectura). La única escritura es MovementRepository.Append
// dentro de las transacciones de los flujos.
type Service struct {
	movements repository.MovementRepository
	anomalies AnomalyConfig
}

// NewService construye el servicio con la configuración de anomalías.
func NewService(movements repository.MovementRepository, anomalies AnomalyConfig) *Service {
	return &Service{movements: movements, anomalies: anomalies.withDefaults()}
}

// Query movimientos filtrados, más recientes primero.
func (s *Service) Query(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementRecord, error) {
	return s.movements.Query(ctx, f)
}

// DayBucket entradas y salidas de un día (UTC).
type DayBucket struct {
	Day          string          `json:"day"` // 2006-01-02
	Movements    int             `json:"movements"`
	InflowQty    decimal.Decimal `json:"inflow_qty"`
	OutflowQty   decimal.Decimal `json:"outflow_qty"`
	InflowValue  decimal.Decimal `json:"inflow_value"`
	OutflowValue decimal.Decimal `json:"outflow_value"`
}

// Report agregados del libro para un filtro.
type Report struct {
	Total        int                         `json:"total"`
	ByType       map[entity.MovementType]int `json:"by_type"`
	ByStore      map[string]int              `json:"by_store"`
	ByProduct    map[string]int              `json:"by_product"`
	ByUser       map[string]int              `json:"by_user"`
	InflowQty    decimal.Decimal             `json:"inflow_qty"`
	OutflowQty   decimal.Decimal             `json:"outflow_qty"` // positivo
	InflowValue  decimal.Decimal             `json:"inflow_value"`
	OutflowValue decimal.Decimal             `json:"outflow_value"` // positivo
	Timeline     []DayBucket                 `json:"timeline"`      // orden cronológico
}

// GenerateReport agrega por tipo, tienda, producto y usuario, con línea de tiempo diaria.
func (s *Service) GenerateReport(ctx context.Context, f repository.MovementFilter) (*Report, error) {
	f.Limit, f.Offset = 0, 0
	ms, err := s.movements.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return BuildReport(ms), nil
}

// BuildReport calcula el reporte sobre movimientos ya cargados.
func BuildReport(ms []*entity.MovementRecord) *Report {
	rep := &Report{
		Total:        len(ms),
		ByType:       map[entity.MovementType]int{},
		ByStore:      map[string]int{},
		ByProduct:    map[string]int{},
		ByUser:       map[string]int{},
		InflowQty:    decimal.Zero,
		OutflowQty:   decimal.Zero,
		InflowValue:  decimal.Zero,
		OutflowValue: decimal.Zero,
		Timeline:     []DayBucket{},
	}
	days := map[string]*DayBucket{}
	for _, m := range ms {
		rep.ByType[m.Type]++
		rep.ByStore[m.StoreID]++
		rep.ByProduct[m.ProductID]++
		if m.CreatedBy != "" {
			rep.ByUser[m.CreatedBy]++
		}
		key := m.Date.UTC().Format(time.DateOnly)
		b, ok := days[key]
		if !ok {
			b = &DayBucket{Day: key, InflowQty: decimal.Zero, OutflowQty: decimal.Zero, InflowValue: decimal.Zero, OutflowValue: decimal.Zero}
			days[key] = b
		}
		b.Movements++
		if m.IsInflow() {
			rep.InflowQty = rep.InflowQty.Add(m.QuantityDelta)
			rep.InflowValue = rep.InflowValue.Add(m.Value)
			b.InflowQty = b.InflowQty.Add(m.QuantityDelta)
			b.InflowValue = b.InflowValue.Add(m.Value)
		} else {
			rep.OutflowQty = rep.OutflowQty.Add(m.QuantityDelta.Abs())
			rep.OutflowValue = rep.OutflowValue.Add(m.Value.Abs())
			b.OutflowQty = b.OutflowQty.Add(m.QuantityDelta.Abs())
			b.OutflowValue = b.OutflowValue.Add(m.Value.Abs())
		}
	}
	for _, b := range days {
		rep.Timeline = append(rep.Timeline, *b)
	}
	sort.Slice(rep.Timeline, func(i, j int) bool { return rep.Timeline[i].Day < rep.Timeline[j].Day })
	return rep
}
