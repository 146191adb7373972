package http

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-core/internal/application/dto"
	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/application/ledger"
	"github.com/jhoicas/stock-core/internal/domain/repository"
	"github.com/jhoicas/stock-core/internal/domain/validation"
)

// AnomalyScanScheduler encola una revisión de anomalías en segundo plano.
type AnomalyScanScheduler interface {
	ScheduleAnomalyScan(ctx context.Context, windowHours int, storeIDs []string) (string, error)
}

// StockHandler consultas de stock y del libro de movimientos (protegido).
type StockHandler struct {
	stock  *inventory.StockService
	ledger *ledger.Service
	scans  AnomalyScanScheduler
	log    zerolog.Logger
}

// NewStockHandler construye el handler. scans puede ser nil.
func NewStockHandler(stock *inventory.StockService, ledgerSvc *ledger.Service, scans AnomalyScanScheduler, log zerolog.Logger) *StockHandler {
	return &StockHandler{stock: stock, ledger: ledgerSvc, scans: scans, log: log}
}

// ListByStore godoc
// @Summary      Stock de una tienda
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        storeId  path  string  true  "tienda"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{storeId} [get]
func (h *StockHandler) ListByStore(c *fiber.Ctx) error {
	levels, err := h.stock.ListStockLevels(c.Context(), c.Params("storeId"))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.FromStockLevel(l))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Stock de un producto en una tienda
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        storeId    path  string  true  "tienda"
// @Param        productId  path  string  true  "producto"
// @Success      200  {object}  dto.StockLevelResponse
// @Router       /api/stock/{storeId}/{productId} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	l, err := h.stock.GetStockLevel(c.Context(), c.Params("storeId"), c.Params("productId"))
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(dto.FromStockLevel(l))
}

// movementFilter lee la consulta; si falla ya escribió la respuesta.
func (h *StockHandler) movementFilter(c *fiber.Ctx) (repository.MovementFilter, bool, error) {
	var q dto.MovementQuery
	if err := c.QueryParser(&q); err != nil {
		return repository.MovementFilter{}, false, badQuery(c)
	}
	if issues := dto.Validate(&q); len(issues) > 0 {
		return repository.MovementFilter{}, false, invalidRequest(c, issues)
	}
	if bad := q.InvalidTypes(); len(bad) > 0 {
		return repository.MovementFilter{}, false, invalidRequest(c, []dto.IssueDTO{{
			Field: "type", Code: "INVALID_INPUT", Message: "tipo de movimiento desconocido: " + strings.Join(bad, ", "),
		}})
	}
	f, err := q.Filter()
	if err != nil {
		return repository.MovementFilter{}, false, writeError(c, h.log, err, validation.Result{})
	}
	return f, true, nil
}

// Movements godoc
// @Summary      Consultar el libro de movimientos
// @Description  Las listas (store_id, product_id, type, user_id) van separadas por coma.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        from        query  string  false  "desde"
// @Param        to          query  string  false  "hasta"
// @Param        store_id    query  string  false  "tiendas"
// @Param        product_id  query  string  false  "productos"
// @Param        type        query  string  false  "arrival,transfer_out,transfer_in,sale,loss,adjustment"
// @Param        user_id     query  string  false  "usuarios"
// @Param        q           query  string  false  "búsqueda libre"
// @Param        limit       query  int     false  "máximo 1000"
// @Param        offset      query  int     false  "desplazamiento"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	f, ok, err := h.movementFilter(c)
	if !ok {
		return err
	}
	ms, err := h.ledger.Query(c.Context(), f)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	out := make([]dto.MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, dto.FromMovement(m))
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte agregado de movimientos
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  ledger.Report
// @Router       /api/movements/report [get]
func (h *StockHandler) Report(c *fiber.Ctx) error {
	f, ok, err := h.movementFilter(c)
	if !ok {
		return err
	}
	rep, err := h.ledger.GenerateReport(c.Context(), f)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(rep)
}

// Anomalies godoc
// @Summary      Anomalías del libro (consultivas)
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  ledger.Anomaly
// @Router       /api/movements/anomalies [get]
func (h *StockHandler) Anomalies(c *fiber.Ctx) error {
	f, ok, err := h.movementFilter(c)
	if !ok {
		return err
	}
	found, err := h.ledger.ScanAnomalies(c.Context(), f)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.JSON(fiber.Map{"total": len(found), "anomalies": found})
}

// ScheduleScan godoc
// @Summary      Encolar revisión de anomalías
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        window_hours  query  int     false  "ventana hacia atrás (24)"
// @Param        store_id      query  string  false  "tiendas separadas por coma"
// @Success      202  {object}  map[string]string
// @Failure      501  {object}  dto.ErrorResponse
// @Router       /api/movements/anomalies/scan [post]
func (h *StockHandler) ScheduleScan(c *fiber.Ctx) error {
	if h.scans == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "JOBS_DISABLED", Message: "cola de trabajos no configurada"})
	}
	window := c.QueryInt("window_hours", 0)
	if window < 0 {
		return badQuery(c)
	}
	var storeIDs []string
	for _, s := range strings.Split(c.Query("store_id"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			storeIDs = append(storeIDs, s)
		}
	}
	id, err := h.scans.ScheduleAnomalyScan(c.Context(), window, storeIDs)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"task_id": id})
}

// Export godoc
// @Summary      Exportar movimientos
// @Tags         movements
// @Security     Bearer
// @Produce      text/csv
// @Produce      json
// @Param        format  query  string  true  "csv | json"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements/export [get]
func (h *StockHandler) Export(c *fiber.Ctx) error {
	f, ok, err := h.movementFilter(c)
	if !ok {
		return err
	}
	format := strings.ToLower(c.Query("format", ledger.FormatCSV))
	var buf bytes.Buffer
	n, err := h.ledger.Export(c.Context(), f, format, &buf)
	if err != nil {
		return writeError(c, h.log, err, validation.Result{})
	}
	contentType := "text/csv; charset=utf-8"
	if format == ledger.FormatJSON {
		contentType = fiber.MIMEApplicationJSONCharsetUTF8
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="movements.`+format+`"`)
	c.Set("X-Total-Count", strconv.Itoa(n))
	return c.Send(buf.Bytes())
}
