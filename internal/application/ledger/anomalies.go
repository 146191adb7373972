package ledger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// Tipos de hallazgo.
const (
	AnomalyOversized     = "oversized_quantity"
	AnomalyOffHours      = "off_hours"
	AnomalyNearDuplicate = "near_duplicate"
)

// AnomalyConfig umbrales explícitos. Cero en un campo numérico toma el valor por defecto,
// salvo MaxQuantity (cero = sin tope absoluto).
type AnomalyConfig struct {
	ZScore            float64         // desviaciones estándar para marcar una cantidad (2.5)
	MinSample         int             // movimientos mínimos por producto para calcular z (10)
	MaxQuantity       decimal.Decimal // tope absoluto de |cantidad|; cero lo desactiva
	BusinessHourStart int             // hora local de apertura, inclusive (7)
	BusinessHourEnd   int             // hora local de cierre, exclusiva (20)
	DuplicateWindow   time.Duration   // ventana de casi-duplicados (5m)
	Location          *time.Location  // zona de los horarios (UTC)
}

// DefaultAnomalyConfig valores por defecto.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		ZScore:            2.5,
		MinSample:         10,
		BusinessHourStart: 7,
		BusinessHourEnd:   20,
		DuplicateWindow:   5 * time.Minute,
		Location:          time.UTC,
	}
}

func (c AnomalyConfig) withDefaults() AnomalyConfig {
	def := DefaultAnomalyConfig()
	if c.ZScore <= 0 {
		c.ZScore = def.ZScore
	}
	if c.MinSample <= 1 {
		c.MinSample = def.MinSample
	}
	if c.BusinessHourStart == 0 && c.BusinessHourEnd == 0 {
		c.BusinessHourStart, c.BusinessHourEnd = def.BusinessHourStart, def.BusinessHourEnd
	}
	if c.DuplicateWindow <= 0 {
		c.DuplicateWindow = def.DuplicateWindow
	}
	if c.Location == nil {
		c.Location = def.Location
	}
	return c
}

// Anomaly hallazgo consultivo sobre un movimiento.
type Anomaly struct {
	MovementID string  `json:"movement_id"`
	Kind       string  `json:"kind"`
	Severity   string  `json:"severity"` // high, medium, low
	Message    string  `json:"message"`
	Score      float64 `json:"score,omitempty"`
	RelatedID  string  `json:"related_id,omitempty"`
}

// Config configuración efectiva.
func (s *Service) Config() AnomalyConfig { return s.anomalies }

// ScanAnomalies consulta y analiza los movimientos del filtro.
func (s *Service) ScanAnomalies(ctx context.Context, f repository.MovementFilter) ([]Anomaly, error) {
	f.Limit, f.Offset = 0, 0
	ms, err := s.movements.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.DetectAnomalies(ms), nil
}

// DetectAnomalies reglas deterministas: cantidad atípica (z-score por producto o tope absoluto),
// creación fuera de horario y casi-duplicados dentro de la ventana.
func (s *Service) DetectAnomalies(ms []*entity.MovementRecord) []Anomaly {
	return detect(ms, s.anomalies)
}

func detect(ms []*entity.MovementRecord, cfg AnomalyConfig) []Anomaly {
	out := []Anomaly{}
	out = append(out, oversized(ms, cfg)...)
	out = append(out, offHours(ms, cfg)...)
	out = append(out, nearDuplicates(ms, cfg)...)
	return out
}

func oversized(ms []*entity.MovementRecord, cfg AnomalyConfig) []Anomaly {
	var out []Anomaly
	flagged := map[string]bool{}
	if cfg.MaxQuantity.IsPositive() {
		for _, m := range ms {
			if m.QuantityDelta.Abs().GreaterThan(cfg.MaxQuantity) {
				flagged[m.ID] = true
				out = append(out, Anomaly{
					MovementID: m.ID,
					Kind:       AnomalyOversized,
					Severity:   "high",
					Message:    fmt.Sprintf("cantidad %s supera el tope de %s", m.QuantityDelta.Abs(), cfg.MaxQuantity),
				})
			}
		}
	}

	byProduct := map[string][]*entity.MovementRecord{}
	for _, m := range ms {
		byProduct[m.ProductID] = append(byProduct[m.ProductID], m)
	}
	products := make([]string, 0, len(byProduct))
	for p := range byProduct {
		products = append(products, p)
	}
	sort.Strings(products)

	for _, p := range products {
		group := byProduct[p]
		if len(group) < cfg.MinSample {
			continue
		}
		values := make([]float64, len(group))
		for i, m := range group {
			values[i] = m.QuantityDelta.Abs().InexactFloat64()
		}
		mean := average(values)
		sd := stddev(values, mean)
		if sd == 0 {
			continue
		}
		for i, m := range group {
			z := (values[i] - mean) / sd
			if z < cfg.ZScore || flagged[m.ID] {
				continue
			}
			out = append(out, Anomaly{
				MovementID: m.ID,
				Kind:       AnomalyOversized,
				Severity:   "high",
				Message:    fmt.Sprintf("cantidad %s atípica para %s (media %.2f, z %.2f)", m.QuantityDelta.Abs(), p, mean, z),
				Score:      math.Round(z*100) / 100,
			})
		}
	}
	return out
}

func offHours(ms []*entity.MovementRecord, cfg AnomalyConfig) []Anomaly {
	var out []Anomaly
	for _, m := range ms {
		ts := m.CreatedAt
		if ts.IsZero() {
			ts = m.Date
		}
		h := ts.In(cfg.Location).Hour()
		if h >= cfg.BusinessHourStart && h < cfg.BusinessHourEnd {
			continue
		}
		out = append(out, Anomaly{
			MovementID: m.ID,
			Kind:       AnomalyOffHours,
			Severity:   "low",
			Message:    fmt.Sprintf("registrado a las %s, fuera del horario %02d:00-%02d:00", ts.In(cfg.Location).Format("15:04"), cfg.BusinessHourStart, cfg.BusinessHourEnd),
		})
	}
	return out
}

func nearDuplicates(ms []*entity.MovementRecord, cfg AnomalyConfig) []Anomaly {
	sorted := append([]*entity.MovementRecord(nil), ms...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	var out []Anomaly
	last := map[string]*entity.MovementRecord{}
	for _, m := range sorted {
		key := m.StoreID + "|" + m.ProductID + "|" + string(m.Type) + "|" + m.QuantityDelta.String() + "|" + m.CreatedBy
		if prev, ok := last[key]; ok && m.CreatedAt.Sub(prev.CreatedAt) <= cfg.DuplicateWindow {
			out = append(out, Anomaly{
				MovementID: m.ID,
				Kind:       AnomalyNearDuplicate,
				Severity:   "medium",
				Message:    fmt.Sprintf("igual a %s registrado %s antes", prev.ID, m.CreatedAt.Sub(prev.CreatedAt).Round(time.Second)),
				RelatedID:  prev.ID,
			})
		}
		last[key] = m
	}
	return out
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
