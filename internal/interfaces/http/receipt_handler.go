package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-core/internal/application/dto"
	"github.com/jhoicas/stock-core/internal/application/receipt"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/validation"
)

// ReceiptHandler maneja las recepciones de mercancía (protegido).
type ReceiptHandler struct {
	proc *receipt.Processor
	log  zerolog.Logger
}

// NewReceiptHandler construye el handler.
func NewReceiptHandler(proc *receipt.Processor, log zerolog.Logger) *ReceiptHandler {
	return &ReceiptHandler{proc: proc, log: log}
}

func receiptBody(r *entity.GoodsReceipt, res validation.Result) dto.ReceiptResponse {
	out := dto.FromReceipt(r)
	out.Warnings = dto.FromWarnings(res)
	return out
}

// Create godoc
// @Summary      Crear recepción (borrador)
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaveReceiptRequest  true  "cabecera y líneas"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
func (h *ReceiptHandler) Create(c *fiber.Ctx) error {
	var in dto.SaveReceiptRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	r := h.proc.CreateDraft(in.SupplierID, in.StoreID, time.Time{}, GetUserID(c))
	in.Apply(r)
	res, err := h.proc.SaveDraft(c.Context(), r)
	if err != nil {
		return writeError(c, h.log, err, res)
	}
	return c.Status(fiber.StatusCreated).JSON(receiptBody(r, res))
}

// Replace godoc
// @Summary      Reemplazar cabecera y líneas del borrador
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la recepción"
// @Param        body  body  dto.SaveReceiptRequest  true  "cabecera y líneas"
// @Success      200   {object}  dto.ReceiptResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [put]
func (h *ReceiptHandler) Replace(c *fiber.Ctx) error {
	var in dto.SaveReceiptRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	r, res, err := h.proc.Edit(c.Context(), c.Params("id"), func(r *entity.GoodsReceipt) error {
		in.Apply(r)
		return nil
	})
	if err != nil {
		return writeError(c, h.log, err, res)
	}
	return c.JSON(receiptBody(r, res))
}

// AutoSave godoc
// @Summary      Auto-guardado en segundo plano
// @Description  Nunca falla por validación: responde 202 y guarda en segundo plano.
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                  true  "ID de la recepción"
// @Param        body  body  dto.SaveReceiptRequest  true  "estado actual del formulario"
// @Success      202
// @Router       /api/receipts/{id}/autosave [post]
func (h *ReceiptHandler) AutoSave(c *fiber.Ctx) error {
	var in dto.SaveReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	r, err := h.proc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	if r.IsTerminal() {
		return c.SendStatus(fiber.StatusAccepted)
	}
	in.Apply(r)
	h.proc.AutoSave(c.UserContext(), r)
	return c.SendStatus(fiber.StatusAccepted)
}

// AddLine godoc
// @Summary      Agregar línea
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la recepción"
// @Param        body  body  dto.AddReceiptLineRequest  true  "línea"
// @Success      200   {object}  dto.ReceiptResponse
// @Router       /api/receipts/{id}/lines [post]
func (h *ReceiptHandler) AddLine(c *fiber.Ctx) error {
	var in dto.AddReceiptLineRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	r, res, err := h.proc.AddLine(c.Context(), c.Params("id"), receipt.LineInput{
		ProductID: in.ProductID, QuantityReceived: in.QuantityReceived, UnitCost: in.UnitCost,
	})
	if err != nil {
		return writeError(c, h.log, err, res)
	}
	return c.JSON(receiptBody(r, res))
}

// UpdateLine godoc
// @Summary      Modificar línea
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id     path  string                        true  "ID de la recepción"
// @Param        index  path  int                           true  "índice 0-based"
// @Param        body   body  dto.UpdateReceiptLineRequest  true  "campos a cambiar"
// @Success      200    {object}  dto.ReceiptResponse
// @Router       /api/receipts/{id}/lines/{index} [put]
func (h *ReceiptHandler) UpdateLine(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: "índice de línea inválido"})
	}
	var in dto.UpdateReceiptLineRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	r, res, err := h.proc.UpdateLine(c.Context(), c.Params("id"), index, in.ProductID, in.QuantityReceived, in.UnitCost)
	if err != nil {
		return writeError(c, h.log, err, res)
	}
	return c.JSON(receiptBody(r, res))
}

// RemoveLine godoc
// @Summary      Eliminar línea
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id     path  string  true  "ID de la recepción"
// @Param        index  path  int     true  "índice 0-based"
// @Success      200    {object}  dto.ReceiptResponse
// @Router       /api/receipts/{id}/lines/{index} [delete]
func (h *ReceiptHandler) RemoveLine(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: "índice de línea inválido"})
	}
	r, res, err := h.proc.RemoveLine(c.Context(), c.Params("id"), index)
	if err != nil {
		return writeError(c, h.log, err, res)
	}
	return c.JSON(receiptBody(r, res))
}

// Validate godoc
// @Summary      Validar y confirmar la recepción
// @Description  Validación estricta; si pasa actualiza stock y CUMP y registra movimientos arrival.
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la recepción"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id}/validate [post]
func (h *ReceiptHandler) Validate(c *fiber.Ctx) error {
	r, err := h.proc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	res, err := h.proc.ValidateAndCommit(c.Context(), r, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err, res)
	}
	return c.JSON(receiptBody(r, res))
}

// GetByID godoc
// @Summary      Obtener recepción
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la recepción"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [get]
func (h *ReceiptHandler) GetByID(c *fiber.Ctx) error {
	r, err := h.proc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromReceipt(r))
}

// List godoc
// @Summary      Listar recepciones
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        store_id     query  string  false  "tienda"
// @Param        supplier_id  query  string  false  "proveedor"
// @Param        status       query  string  false  "draft | validated"
// @Param        from         query  string  false  "desde (RFC3339 o 2006-01-02)"
// @Param        to           query  string  false  "hasta"
// @Param        limit        query  int     false  "por defecto 20"
// @Param        offset       query  int     false  "desplazamiento"
// @Success      200  {object}  dto.ReceiptListResponse
// @Router       /api/receipts [get]
func (h *ReceiptHandler) List(c *fiber.Ctx) error {
	var q dto.DocumentQuery
	if err := c.QueryParser(&q); err != nil {
		return badQuery(c)
	}
	f, err := q.Filter()
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	list, err := h.proc.List(c.Context(), receipt.Filter{DocumentFilter: f, SupplierID: q.SupplierID})
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	items := make([]dto.ReceiptResponse, 0, len(list))
	for _, r := range list {
		items = append(items, dto.FromReceipt(r))
	}
	return c.JSON(dto.ReceiptListResponse{Items: items, Page: dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: len(items)}})
}

// Stats godoc
// @Summary      Estadísticas de recepciones
// @Tags         receipts
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  false  "tienda"
// @Param        from      query  string  false  "desde"
// @Param        to        query  string  false  "hasta"
// @Success      200  {object}  dto.ReceiptStatsResponse
// @Router       /api/receipts/stats [get]
func (h *ReceiptHandler) Stats(c *fiber.Ctx) error {
	var q dto.DocumentQuery
	if err := c.QueryParser(&q); err != nil {
		return badQuery(c)
	}
	f, err := q.Filter()
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	st, err := h.proc.GetStats(c.Context(), f.StoreID, f.From, f.To)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromReceiptStats(st))
}
