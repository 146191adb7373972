package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/application/transfer"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/validation"
)

// TransferLineRequest producto y cantidad a enviar.
type TransferLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateTransferRequest body de POST /api/transfers.
type CreateTransferRequest struct {
	SourceStoreID      string                `json:"source_store_id" validate:"required"`
	DestinationStoreID string                `json:"destination_store_id" validate:"required"`
	Lines              []TransferLineRequest `json:"lines" validate:"required,min=1,dive"`
	Comment            string                `json:"comment,omitempty" validate:"max=500"`
}

// ToInput convierte el request al input del orquestador.
func (r CreateTransferRequest) ToInput(userID string) transfer.CreateInput {
	lines := make([]transfer.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, transfer.LineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return transfer.CreateInput{
		SourceStoreID: r.SourceStoreID, DestinationStoreID: r.DestinationStoreID,
		Lines: lines, Comment: r.Comment, CreatedBy: userID,
	}
}

// ReceivedLineRequest cantidad efectivamente recibida de un producto.
type ReceivedLineRequest struct {
	ProductID        string          `json:"product_id" validate:"required"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
}

// ReceiveTransferRequest body de POST /api/transfers/:id/receive.
type ReceiveTransferRequest struct {
	Lines   []ReceivedLineRequest `json:"lines" validate:"required,min=1,dive"`
	Comment string                `json:"comment,omitempty" validate:"max=500"`
}

// Received convierte las líneas al tipo del motor de validación.
func (r ReceiveTransferRequest) Received() []validation.ReceivedQuantity {
	out := make([]validation.ReceivedQuantity, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, validation.ReceivedQuantity{ProductID: l.ProductID, QuantityReceived: l.QuantityReceived})
	}
	return out
}

// ReasonRequest body de anulaciones y rechazos.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// TransferLineResponse línea con lo recibido y la diferencia (si ya se recibió).
type TransferLineResponse struct {
	ProductID        string           `json:"product_id"`
	QuantitySent     decimal.Decimal  `json:"quantity_sent"`
	UnitCost         decimal.Decimal  `json:"unit_cost"`
	QuantityReceived *decimal.Decimal `json:"quantity_received,omitempty"`
	Variance         *decimal.Decimal `json:"variance,omitempty"`
}

// TransferResponse traslado completo.
type TransferResponse struct {
	ID                 string                 `json:"id"`
	Number             string                 `json:"number"`
	SourceStoreID      string                 `json:"source_store_id"`
	DestinationStoreID string                 `json:"destination_store_id"`
	Status             string                 `json:"status"`
	Lines              []TransferLineResponse `json:"lines"`
	TotalValue         decimal.Decimal        `json:"total_value"`
	Comment            string                 `json:"comment,omitempty"`
	ReceptionComment   string                 `json:"reception_comment,omitempty"`
	CancelReason       string                 `json:"cancel_reason,omitempty"`
	CreatedBy          string                 `json:"created_by"`
	CreatedAt          time.Time              `json:"created_at"`
	ReceivedBy         string                 `json:"received_by,omitempty"`
	ReceivedAt         *time.Time             `json:"received_at,omitempty"`
	CancelledBy        string                 `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time             `json:"cancelled_at,omitempty"`
	Warnings           []WarningDTO           `json:"warnings,omitempty"`
}

// FromTransfer mapea la entidad a respuesta.
func FromTransfer(t *entity.Transfer) TransferResponse {
	lines := make([]TransferLineResponse, 0, len(t.Lines))
	for _, l := range t.Lines {
		lines = append(lines, TransferLineResponse{
			ProductID: l.ProductID, QuantitySent: l.QuantitySent, UnitCost: l.UnitCost,
			QuantityReceived: l.QuantityReceived, Variance: l.Variance,
		})
	}
	return TransferResponse{
		ID: t.ID, Number: t.Number, SourceStoreID: t.SourceStoreID, DestinationStoreID: t.DestinationStoreID,
		Status: t.Status, Lines: lines, TotalValue: t.TotalValue(), Comment: t.Comment,
		ReceptionComment: t.ReceptionComment, CancelReason: t.CancelReason,
		CreatedBy: t.CreatedBy, CreatedAt: t.CreatedAt, ReceivedBy: t.ReceivedBy, ReceivedAt: t.ReceivedAt,
		CancelledBy: t.CancelledBy, CancelledAt: t.CancelledAt,
	}
}

// TransferListResponse listado paginado.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// TransferStatsResponse estadísticas de traslados.
type TransferStatsResponse struct {
	InTransit      int             `json:"in_transit"`
	Completed      int             `json:"completed"`
	WithVariance   int             `json:"completed_with_variance"`
	Cancelled      int             `json:"cancelled"`
	InTransitValue decimal.Decimal `json:"in_transit_value"`
	SentQuantity   decimal.Decimal `json:"sent_quantity"`
	ReceivedQty    decimal.Decimal `json:"received_quantity"`
	VarianceQty    decimal.Decimal `json:"variance_quantity"`
	VarianceRate   decimal.Decimal `json:"variance_rate"`
}

// FromTransferStats mapea las estadísticas.
func FromTransferStats(s *transfer.Stats) TransferStatsResponse {
	return TransferStatsResponse{
		InTransit: s.InTransit, Completed: s.Completed, WithVariance: s.WithVariance, Cancelled: s.Cancelled,
		InTransitValue: s.InTransitValue, SentQuantity: s.SentQuantity, ReceivedQty: s.ReceivedQty,
		VarianceQty: s.VarianceQty, VarianceRate: s.VarianceRate,
	}
}

// VarianceLineResponse línea del reporte de diferencias de traslados.
type VarianceLineResponse struct {
	TransferID         string          `json:"transfer_id"`
	Number             string          `json:"number"`
	SourceStoreID      string          `json:"source_store_id"`
	DestinationStoreID string          `json:"destination_store_id"`
	ProductID          string          `json:"product_id"`
	QuantitySent       decimal.Decimal `json:"quantity_sent"`
	QuantityReceived   decimal.Decimal `json:"quantity_received"`
	Variance           decimal.Decimal `json:"variance"`
	VarianceValue      decimal.Decimal `json:"variance_value"`
	ReceivedAt         *time.Time      `json:"received_at,omitempty"`
}

// VarianceReportResponse reporte de diferencias en tránsito.
type VarianceReportResponse struct {
	Lines         []VarianceLineResponse `json:"lines"`
	TotalVariance decimal.Decimal        `json:"total_variance"`
	TotalValue    decimal.Decimal        `json:"total_value"`
}

// FromVarianceReport mapea el reporte.
func FromVarianceReport(r *transfer.VarianceReport) VarianceReportResponse {
	lines := make([]VarianceLineResponse, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, VarianceLineResponse{
			TransferID: l.TransferID, Number: l.Number, SourceStoreID: l.SourceStoreID,
			DestinationStoreID: l.DestinationStoreID, ProductID: l.ProductID, QuantitySent: l.QuantitySent,
			QuantityReceived: l.QuantityReceived, Variance: l.Variance, VarianceValue: l.VarianceValue,
			ReceivedAt: l.ReceivedAt,
		})
	}
	return VarianceReportResponse{Lines: lines, TotalVariance: r.TotalVariance, TotalValue: r.TotalValue}
}
