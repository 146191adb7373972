package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-core/internal/application/dto"
	"github.com/jhoicas/stock-core/internal/application/transfer"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/validation"
)

// TransferNoteGenerator genera la guía de despacho en PDF.
type TransferNoteGenerator interface {
	GenerateTransferNote(ctx context.Context, t *entity.Transfer) ([]byte, error)
}

// TransferHandler maneja los traslados entre tiendas (protegido).
type TransferHandler struct {
	orch *transfer.Orchestrator
	pdf  TransferNoteGenerator
	log  zerolog.Logger
}

// NewTransferHandler construye el handler. pdf puede ser nil.
func NewTransferHandler(orch *transfer.Orchestrator, pdf TransferNoteGenerator, log zerolog.Logger) *TransferHandler {
	return &TransferHandler{orch: orch, pdf: pdf, log: log}
}

// Create godoc
// @Summary      Crear y despachar traslado
// @Description  Descuenta el stock de origen y deja el traslado en tránsito.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "origen, destino y líneas"
// @Success      201   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	t, res, err := h.orch.Create(c.Context(), in.ToInput(GetUserID(c)))
	if err != nil {
		return writeError(c, h.log, err, res)
	}
	out := dto.FromTransfer(t)
	out.Warnings = dto.FromWarnings(res)
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Receive godoc
// @Summary      Recibir traslado en destino
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del traslado"
// @Param        body  body  dto.ReceiveTransferRequest  true  "cantidades recibidas"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveTransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	t, res, err := h.orch.Receive(c.Context(), c.Params("id"), in.Received(), in.Comment, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err, res)
	}
	out := dto.FromTransfer(t)
	out.Warnings = dto.FromWarnings(res)
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Anular traslado en tránsito
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del traslado"
// @Param        body  body  dto.ReasonRequest  true  "motivo"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	t, err := h.orch.Cancel(c.Context(), c.Params("id"), in.Reason, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromTransfer(t))
}

// GetByID godoc
// @Summary      Obtener traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	t, err := h.orch.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromTransfer(t))
}

// List godoc
// @Summary      Listar traslados
// @Description  store_id coincide con origen o destino.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  false  "tienda"
// @Param        status    query  string  false  "in_transit | completed | completed_with_variance | cancelled"
// @Param        from      query  string  false  "desde"
// @Param        to        query  string  false  "hasta"
// @Param        limit     query  int     false  "por defecto 20"
// @Param        offset    query  int     false  "desplazamiento"
// @Success      200  {object}  dto.TransferListResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	var q dto.DocumentQuery
	if err := c.QueryParser(&q); err != nil {
		return badQuery(c)
	}
	f, err := q.Filter()
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	list, err := h.orch.List(c.Context(), f)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	items := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		items = append(items, dto.FromTransfer(t))
	}
	return c.JSON(dto.TransferListResponse{Items: items, Page: dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: len(items)}})
}

// Stats godoc
// @Summary      Estadísticas de traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  false  "tienda"
// @Param        from      query  string  false  "desde"
// @Param        to        query  string  false  "hasta"
// @Success      200  {object}  dto.TransferStatsResponse
// @Router       /api/transfers/stats [get]
func (h *TransferHandler) Stats(c *fiber.Ctx) error {
	var q dto.DocumentQuery
	if err := c.QueryParser(&q); err != nil {
		return badQuery(c)
	}
	f, err := q.Filter()
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	st, err := h.orch.GetStats(c.Context(), f)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromTransferStats(st))
}

// VarianceReport godoc
// @Summary      Reporte de diferencias de traslados recibidos
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  false  "tienda"
// @Param        from      query  string  false  "desde"
// @Param        to        query  string  false  "hasta"
// @Success      200  {object}  dto.VarianceReportResponse
// @Router       /api/transfers/variance-report [get]
func (h *TransferHandler) VarianceReport(c *fiber.Ctx) error {
	var q dto.DocumentQuery
	if err := c.QueryParser(&q); err != nil {
		return badQuery(c)
	}
	f, err := q.Filter()
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	rep, err := h.orch.GetVarianceReport(c.Context(), f)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromVarianceReport(rep))
}

// PDF godoc
// @Summary      Guía de despacho en PDF
// @Tags         transfers
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/pdf [get]
func (h *TransferHandler) PDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "PDF_DISABLED", Message: "generación de PDF no configurada"})
	}
	t, err := h.orch.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	pdf, err := h.pdf.GenerateTransferNote(c.Context(), t)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+t.Number+`.pdf"`)
	return c.Send(pdf)
}
