package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/application/count"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/validation"
)

// CreateCountRequest body de POST /api/inventory-counts.
type CreateCountRequest struct {
	StoreID string     `json:"store_id" validate:"required"`
	Date    *time.Time `json:"date,omitempty"`
	Comment string     `json:"comment,omitempty" validate:"max=500"`
}

// CountEntryRequest cantidad física de un producto.
type CountEntryRequest struct {
	ProductID        string          `json:"product_id" validate:"required"`
	PhysicalQuantity decimal.Decimal `json:"physical_quantity"`
	Comment          string          `json:"comment,omitempty" validate:"max=500"`
}

// RecordCountsRequest body de POST /api/inventory-counts/:id/counts.
type RecordCountsRequest struct {
	Entries []CountEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

// ToEntries convierte al tipo del motor de validación.
func (r RecordCountsRequest) ToEntries() []validation.CountEntry {
	out := make([]validation.CountEntry, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, validation.CountEntry{ProductID: e.ProductID, PhysicalQuantity: e.PhysicalQuantity, Comment: e.Comment})
	}
	return out
}

// CountLineResponse línea del inventario.
type CountLineResponse struct {
	ProductID           string           `json:"product_id"`
	TheoreticalQuantity decimal.Decimal  `json:"theoretical_quantity"`
	AverageCost         decimal.Decimal  `json:"average_cost"`
	PhysicalQuantity    *decimal.Decimal `json:"physical_quantity,omitempty"`
	Variance            *decimal.Decimal `json:"variance,omitempty"`
	VarianceValue       *decimal.Decimal `json:"variance_value,omitempty"`
	Comment             string           `json:"comment,omitempty"`
}

// CountResponse inventario físico completo.
type CountResponse struct {
	ID                 string              `json:"id"`
	Number             string              `json:"number"`
	StoreID            string              `json:"store_id"`
	Date               time.Time           `json:"date"`
	Status             string              `json:"status"`
	Lines              []CountLineResponse `json:"lines"`
	TotalVariance      decimal.Decimal     `json:"total_variance"`
	TotalVarianceValue decimal.Decimal     `json:"total_variance_value"`
	Comments           []string            `json:"comments,omitempty"`
	CreatedBy          string              `json:"created_by"`
	CreatedAt          time.Time           `json:"created_at"`
	SubmittedAt        *time.Time          `json:"submitted_at,omitempty"`
	ValidatedBy        string              `json:"validated_by,omitempty"`
	ValidatedAt        *time.Time          `json:"validated_at,omitempty"`
	Warnings           []WarningDTO        `json:"warnings,omitempty"`
}

func fromCountLines(lines []entity.InventoryCountLine) []CountLineResponse {
	out := make([]CountLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, CountLineResponse{
			ProductID: l.ProductID, TheoreticalQuantity: l.TheoreticalQuantity, AverageCost: l.AverageCost,
			PhysicalQuantity: l.PhysicalQuantity, Variance: l.Variance, VarianceValue: l.VarianceValue, Comment: l.Comment,
		})
	}
	return out
}

// FromCount mapea la entidad a respuesta.
func FromCount(c *entity.InventoryCount) CountResponse {
	return CountResponse{
		ID: c.ID, Number: c.Number, StoreID: c.StoreID, Date: c.Date, Status: c.Status,
		Lines: fromCountLines(c.Lines), TotalVariance: c.TotalVariance, TotalVarianceValue: c.TotalVarianceValue,
		Comments: c.Comments, CreatedBy: c.CreatedBy, CreatedAt: c.CreatedAt, SubmittedAt: c.SubmittedAt,
		ValidatedBy: c.ValidatedBy, ValidatedAt: c.ValidatedAt,
	}
}

// CountListResponse listado paginado.
type CountListResponse struct {
	Items []CountResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// VarianceAnalysisResponse análisis de diferencias del inventario.
type VarianceAnalysisResponse struct {
	CountID            string              `json:"count_id"`
	Number             string              `json:"number"`
	Status             string              `json:"status"`
	Lines              int                 `json:"lines"`
	CountedLines       int                 `json:"counted_lines"`
	LinesWithVariance  int                 `json:"lines_with_variance"`
	AccuracyRate       decimal.Decimal     `json:"accuracy_rate"`
	TotalVariance      decimal.Decimal     `json:"total_variance"`
	TotalVarianceValue decimal.Decimal     `json:"total_variance_value"`
	SurplusValue       decimal.Decimal     `json:"surplus_value"`
	ShortageValue      decimal.Decimal     `json:"shortage_value"`
	TheoreticalValue   decimal.Decimal     `json:"theoretical_value"`
	Ranked             []CountLineResponse `json:"ranked"`
}

// FromVarianceAnalysis mapea el análisis.
func FromVarianceAnalysis(a *count.VarianceAnalysis) VarianceAnalysisResponse {
	return VarianceAnalysisResponse{
		CountID: a.CountID, Number: a.Number, Status: a.Status, Lines: a.Lines, CountedLines: a.CountedLines,
		LinesWithVariance: a.LinesWithVariance, AccuracyRate: a.AccuracyRate, TotalVariance: a.TotalVariance,
		TotalVarianceValue: a.TotalVarianceValue, SurplusValue: a.SurplusValue, ShortageValue: a.ShortageValue,
		TheoreticalValue: a.TheoreticalValue, Ranked: fromCountLines(a.Ranked),
	}
}
