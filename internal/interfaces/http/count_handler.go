package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-core/internal/application/count"
	"github.com/jhoicas/stock-core/internal/application/dto"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
	"github.com/jhoicas/stock-core/internal/domain/validation"
)

// CountReportGenerator genera el PDF de diferencias de un inventario.
type CountReportGenerator interface {
	GenerateCountReport(ctx context.Context, c *entity.InventoryCount, storeName string) ([]byte, error)
}

// CountHandler maneja los inventarios físicos (protegido).
type CountHandler struct {
	rec    *count.Reconciler
	pdf    CountReportGenerator
	stores repository.StoreRepository
	log    zerolog.Logger
}

// NewCountHandler construye el handler. pdf y stores pueden ser nil.
func NewCountHandler(rec *count.Reconciler, pdf CountReportGenerator, stores repository.StoreRepository, log zerolog.Logger) *CountHandler {
	return &CountHandler{rec: rec, pdf: pdf, stores: stores, log: log}
}

// Create godoc
// @Summary      Abrir inventario físico
// @Description  Toma la foto del stock teórico de la tienda.
// @Tags         inventory-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCountRequest  true  "tienda, fecha y comentario"
// @Success      201   {object}  dto.CountResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory-counts [post]
func (h *CountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCountRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	var date time.Time
	if in.Date != nil {
		date = *in.Date
	}
	ic, err := h.rec.Create(c.Context(), in.StoreID, date, in.Comment, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromCount(ic))
}

// RecordCounts godoc
// @Summary      Registrar cantidades físicas
// @Tags         inventory-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del inventario"
// @Param        body  body  dto.RecordCountsRequest  true  "conteos"
// @Success      200   {object}  dto.CountResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory-counts/{id}/counts [post]
func (h *CountHandler) RecordCounts(c *fiber.Ctx) error {
	var in dto.RecordCountsRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	ic, err := h.rec.RecordCounts(c.Context(), c.Params("id"), in.ToEntries())
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromCount(ic))
}

// Submit godoc
// @Summary      Enviar a validación
// @Tags         inventory-counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del inventario"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory-counts/{id}/submit [post]
func (h *CountHandler) Submit(c *fiber.Ctx) error {
	ic, res, err := h.rec.Submit(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err, res)
	}
	out := dto.FromCount(ic)
	out.Warnings = dto.FromWarnings(res)
	return c.JSON(out)
}

// Validate godoc
// @Summary      Validar inventario y ajustar stock
// @Tags         inventory-counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del inventario"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory-counts/{id}/validate [post]
func (h *CountHandler) Validate(c *fiber.Ctx) error {
	ic, err := h.rec.Validate(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromCount(ic))
}

// Reject godoc
// @Summary      Rechazar inventario (vuelve a conteo)
// @Tags         inventory-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del inventario"
// @Param        body  body  dto.ReasonRequest  true  "motivo"
// @Success      200   {object}  dto.CountResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory-counts/{id}/reject [post]
func (h *CountHandler) Reject(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	ic, err := h.rec.Reject(c.Context(), c.Params("id"), GetUserID(c), in.Reason)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromCount(ic))
}

// GetByID godoc
// @Summary      Obtener inventario
// @Tags         inventory-counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del inventario"
// @Success      200  {object}  dto.CountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory-counts/{id} [get]
func (h *CountHandler) GetByID(c *fiber.Ctx) error {
	ic, err := h.rec.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromCount(ic))
}

// List godoc
// @Summary      Listar inventarios
// @Tags         inventory-counts
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  false  "tienda"
// @Param        status    query  string  false  "in_progress | pending_validation | validated"
// @Param        from      query  string  false  "desde"
// @Param        to        query  string  false  "hasta"
// @Param        limit     query  int     false  "por defecto 20"
// @Param        offset    query  int     false  "desplazamiento"
// @Success      200  {object}  dto.CountListResponse
// @Router       /api/inventory-counts [get]
func (h *CountHandler) List(c *fiber.Ctx) error {
	var q dto.DocumentQuery
	if err := c.QueryParser(&q); err != nil {
		return badQuery(c)
	}
	f, err := q.Filter()
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	list, err := h.rec.List(c.Context(), f)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	items := make([]dto.CountResponse, 0, len(list))
	for _, ic := range list {
		items = append(items, dto.FromCount(ic))
	}
	return c.JSON(dto.CountListResponse{Items: items, Page: dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: len(items)}})
}

// Variance godoc
// @Summary      Análisis de diferencias
// @Tags         inventory-counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del inventario"
// @Success      200  {object}  dto.VarianceAnalysisResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory-counts/{id}/variance [get]
func (h *CountHandler) Variance(c *fiber.Ctx) error {
	a, err := h.rec.GetVarianceAnalysis(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromVarianceAnalysis(a))
}

// PDF godoc
// @Summary      Reporte PDF de diferencias
// @Tags         inventory-counts
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del inventario"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory-counts/{id}/pdf [get]
func (h *CountHandler) PDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "PDF_DISABLED", Message: "generación de PDF no configurada"})
	}
	ic, err := h.rec.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	storeName := ic.StoreID
	if h.stores != nil {
		if s, err := h.stores.GetByID(c.Context(), ic.StoreID); err == nil && s.Name != "" {
			storeName = s.Name
		}
	}
	pdf, err := h.pdf.GenerateCountReport(c.Context(), ic, storeName)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+ic.Number+`.pdf"`)
	return c.Send(pdf)
}
