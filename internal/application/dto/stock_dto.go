package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-core/internal/domain/inventory"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// StockLevelResponse stock de un producto en una tienda.
type StockLevelResponse struct {
	StoreID          string          `json:"store_id"`
	ProductID        string          `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	Available        decimal.Decimal `json:"available"`
	AverageCost      decimal.Decimal `json:"average_cost"`
	Value            decimal.Decimal `json:"value"`
	LastUpdated      time.Time       `json:"last_updated"`
}

// FromStockLevel mapea el nivel de stock.
func FromStockLevel(l *entity.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		StoreID: l.StoreID, ProductID: l.ProductID, Quantity: l.Quantity, ReservedQuantity: l.ReservedQuantity,
		Available: l.Available(), AverageCost: l.AverageCost, Value: l.Value(), LastUpdated: l.LastUpdated,
	}
}

// MovementQuery parámetros de GET /api/movements. Las listas van separadas por coma.
type MovementQuery struct {
	From          string `query:"from"`
	To            string `query:"to"`
	Stores        string `query:"store_id"`
	Products      string `query:"product_id"`
	Types         string `query:"type"`
	Users         string `query:"user_id"`
	ReferenceType string `query:"reference_type"`
	ReferenceID   string `query:"reference_id"`
	Search        string `query:"q" validate:"max=100"`
	Limit         int    `query:"limit" validate:"min=0,max=1000"`
	Offset        int    `query:"offset" validate:"min=0"`
}

// Filter convierte la consulta al filtro del libro.
func (q MovementQuery) Filter() (repository.MovementFilter, error) {
	from, to, err := parseRange(q.From, q.To)
	if err != nil {
		return repository.MovementFilter{}, err
	}
	f := repository.MovementFilter{
		From: from, To: to,
		StoreIDs: splitList(q.Stores), ProductIDs: splitList(q.Products), UserIDs: splitList(q.Users),
		ReferenceType: q.ReferenceType, ReferenceID: q.ReferenceID, Search: q.Search,
		Limit: q.Limit, Offset: q.Offset,
	}
	for _, t := range splitList(q.Types) {
		f.Types = append(f.Types, entity.MovementType(t))
	}
	return f, nil
}

// InvalidTypes tipos de movimiento desconocidos en la consulta.
func (q MovementQuery) InvalidTypes() []string {
	var bad []string
	for _, t := range splitList(q.Types) {
		if !entity.MovementType(t).Valid() {
			bad = append(bad, t)
		}
	}
	return bad
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MovementResponse movimiento del libro.
type MovementResponse struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Type          string          `json:"type"`
	StoreID       string          `json:"store_id"`
	ProductID     string          `json:"product_id"`
	QuantityDelta decimal.Decimal `json:"quantity_delta"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Value         decimal.Decimal `json:"value"`
	ReferenceID   string          `json:"reference_id"`
	ReferenceType string          `json:"reference_type"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	Comment       string          `json:"comment,omitempty"`
}

// FromMovement mapea el movimiento.
func FromMovement(m *entity.MovementRecord) MovementResponse {
	return MovementResponse{
		ID: m.ID, Date: m.Date, Type: string(m.Type), StoreID: m.StoreID, ProductID: m.ProductID,
		QuantityDelta: m.QuantityDelta, UnitCost: m.UnitCost, Value: m.Value,
		ReferenceID: m.ReferenceID, ReferenceType: m.ReferenceType, CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt, Comment: m.Comment,
	}
}

// DocumentQuery parámetros comunes de listados de documentos.
type DocumentQuery struct {
	StoreID    string `query:"store_id"`
	Status     string `query:"status"`
	Number     string `query:"number"`
	SupplierID string `query:"supplier_id"`
	From       string `query:"from"`
	To         string `query:"to"`
	Limit      int    `query:"limit" validate:"min=0,max=500"`
	Offset     int    `query:"offset" validate:"min=0"`
}

// Filter convierte la consulta al filtro de repositorio (aplica paginación por defecto).
func (q DocumentQuery) Filter() (repository.DocumentFilter, error) {
	from, to, err := parseRange(q.From, q.To)
	if err != nil {
		return repository.DocumentFilter{}, err
	}
	number, err := parseNumber(q.Number)
	if err != nil {
		return repository.DocumentFilter{}, err
	}
	page := PageRequest{Limit: q.Limit, Offset: q.Offset}
	page.DefaultPage()
	return repository.DocumentFilter{
		StoreID: q.StoreID, Status: q.Status, Number: number,
		From: from, To: to, Limit: page.Limit, Offset: page.Offset,
	}, nil
}

// parseNumber normaliza a mayúsculas y exige el formato PREFIX-YYYY-NNNN.
func parseNumber(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if _, _, _, ok := domaininv.ParseDocumentNumber(s); !ok {
		return "", fmt.Errorf("número de documento %q: %w", s, domain.ErrInvalidInput)
	}
	return s, nil
}

// parseRange acepta RFC3339 o fecha simple (2006-01-02). Una fecha simple en "to" cubre el día completo.
func parseRange(from, to string) (*time.Time, *time.Time, error) {
	f, err := parseDate(from, false)
	if err != nil {
		return nil, nil, err
	}
	t, err := parseDate(to, true)
	if err != nil {
		return nil, nil, err
	}
	if f != nil && t != nil && t.Before(*f) {
		return nil, nil, fmt.Errorf("rango de fechas: %w: to anterior a from", domain.ErrInvalidInput)
	}
	return f, t, nil
}

func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("fecha %q: %w", s, domain.ErrInvalidInput)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
