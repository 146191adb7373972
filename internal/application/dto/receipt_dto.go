package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/application/receipt"
	"github.com/jhoicas/stock-core/internal/domain/entity"
)

// ReceiptLineRequest línea de recepción. Cantidad y costo los valida el motor de reglas.
type ReceiptLineRequest struct {
	ProductID        string          `json:"product_id"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
}

// SaveReceiptRequest body de POST /api/receipts y PUT /api/receipts/:id (cabecera + líneas completas).
type SaveReceiptRequest struct {
	SupplierID    string               `json:"supplier_id"`
	StoreID       string               `json:"store_id"`
	DateReceived  *time.Time           `json:"date_received,omitempty"`
	DeclaredTotal *decimal.Decimal     `json:"declared_total,omitempty"`
	Comment       string               `json:"comment,omitempty" validate:"max=500"`
	Lines         []ReceiptLineRequest `json:"lines" validate:"max=1000"`
}

// Apply vuelca el request sobre el borrador y recalcula totales.
func (r SaveReceiptRequest) Apply(gr *entity.GoodsReceipt) {
	gr.SupplierID = r.SupplierID
	gr.StoreID = r.StoreID
	if r.DateReceived != nil {
		gr.DateReceived = *r.DateReceived
	}
	gr.DeclaredTotal = r.DeclaredTotal
	gr.Comment = r.Comment
	gr.Lines = make([]entity.GoodsReceiptLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		gr.Lines = append(gr.Lines, entity.GoodsReceiptLine{
			ProductID:        l.ProductID,
			QuantityReceived: l.QuantityReceived,
			UnitCost:         l.UnitCost,
		})
	}
	gr.Recalculate()
}

// AddReceiptLineRequest body de POST /api/receipts/:id/lines.
type AddReceiptLineRequest struct {
	ProductID        string          `json:"product_id" validate:"required"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
}

// UpdateReceiptLineRequest body de PUT /api/receipts/:id/lines/:index; los campos ausentes no cambian.
type UpdateReceiptLineRequest struct {
	ProductID        *string          `json:"product_id,omitempty" validate:"omitempty,min=1"`
	QuantityReceived *decimal.Decimal `json:"quantity_received,omitempty"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
}

// ReceiptLineResponse línea con subtotal.
type ReceiptLineResponse struct {
	ProductID        string          `json:"product_id"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Subtotal         decimal.Decimal `json:"subtotal"`
}

// ReceiptResponse recepción completa.
type ReceiptResponse struct {
	ID            string                `json:"id"`
	Number        string                `json:"number"`
	SupplierID    string                `json:"supplier_id"`
	StoreID       string                `json:"store_id"`
	DateReceived  time.Time             `json:"date_received"`
	Status        string                `json:"status"`
	Lines         []ReceiptLineResponse `json:"lines"`
	DeclaredTotal *decimal.Decimal      `json:"declared_total,omitempty"`
	TotalValue    decimal.Decimal       `json:"total_value"`
	Comment       string                `json:"comment,omitempty"`
	CreatedBy     string                `json:"created_by"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ValidatedBy   string                `json:"validated_by,omitempty"`
	ValidatedAt   *time.Time            `json:"validated_at,omitempty"`
	Warnings      []WarningDTO          `json:"warnings,omitempty"`
}

// FromReceipt mapea la entidad a respuesta.
func FromReceipt(r *entity.GoodsReceipt) ReceiptResponse {
	lines := make([]ReceiptLineResponse, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, ReceiptLineResponse{
			ProductID: l.ProductID, QuantityReceived: l.QuantityReceived, UnitCost: l.UnitCost, Subtotal: l.Subtotal,
		})
	}
	return ReceiptResponse{
		ID: r.ID, Number: r.Number, SupplierID: r.SupplierID, StoreID: r.StoreID, DateReceived: r.DateReceived,
		Status: r.Status, Lines: lines, DeclaredTotal: r.DeclaredTotal, TotalValue: r.TotalValue, Comment: r.Comment,
		CreatedBy: r.CreatedBy, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		ValidatedBy: r.ValidatedBy, ValidatedAt: r.ValidatedAt,
	}
}

// ReceiptListResponse listado paginado.
type ReceiptListResponse struct {
	Items []ReceiptResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// SupplierTotalResponse ranking de proveedores.
type SupplierTotalResponse struct {
	SupplierID string          `json:"supplier_id"`
	Receipts   int             `json:"receipts"`
	Value      decimal.Decimal `json:"value"`
}

// ReceiptStatsResponse estadísticas de recepciones.
type ReceiptStatsResponse struct {
	Drafts         int                     `json:"drafts"`
	Validated      int                     `json:"validated"`
	ValidatedValue decimal.Decimal         `json:"validated_value"`
	AverageValue   decimal.Decimal         `json:"average_value"`
	DraftValue     decimal.Decimal         `json:"draft_value"`
	TotalLines     int                     `json:"total_lines"`
	TopSuppliers   []SupplierTotalResponse `json:"top_suppliers"`
}

// FromReceiptStats mapea las estadísticas.
func FromReceiptStats(s *receipt.Stats) ReceiptStatsResponse {
	top := make([]SupplierTotalResponse, 0, len(s.TopSuppliers))
	for _, t := range s.TopSuppliers {
		top = append(top, SupplierTotalResponse{SupplierID: t.SupplierID, Receipts: t.Receipts, Value: t.Value})
	}
	return ReceiptStatsResponse{
		Drafts: s.Drafts, Validated: s.Validated, ValidatedValue: s.ValidatedValue, AverageValue: s.AverageValue,
		DraftValue: s.DraftValue, TotalLines: s.TotalLines, TopSuppliers: top,
	}
}
