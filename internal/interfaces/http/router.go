package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-core/internal/application/count"
	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/application/ledger"
	"github.com/jhoicas/stock-core/internal/application/receipt"
	"github.com/jhoicas/stock-core/internal/application/transfer"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// RouterDeps dependencias para el router. CountPDF, TransferPDF, Stores y Scans son opcionales.
type RouterDeps struct {
	Receipts    *receipt.Processor
	Transfers   *transfer.Orchestrator
	Counts      *count.Reconciler
	Stock       *inventory.StockService
	Ledger      *ledger.Service
	CountPDF    CountReportGenerator
	TransferPDF TransferNoteGenerator
	Stores      repository.StoreRepository
	Scans       AnomalyScanScheduler
	JWTSecret   string
	Log         zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token; las confirmaciones
// que mueven stock exigen rol admin o bodeguero.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	confirm := RequireRole(RoleAdmin, RoleBodeguero)
	approve := RequireRole(RoleAdmin)

	// Recepciones de mercancía
	receipts := api.Group("/receipts")
	receiptHandler := NewReceiptHandler(deps.Receipts, deps.Log)
	receipts.Post("/", receiptHandler.Create)
	receipts.Get("/", receiptHandler.List)
	receipts.Get("/stats", receiptHandler.Stats)
	receipts.Get("/:id", receiptHandler.GetByID)
	receipts.Put("/:id", receiptHandler.Replace)
	receipts.Post("/:id/autosave", receiptHandler.AutoSave)
	receipts.Post("/:id/lines", receiptHandler.AddLine)
	receipts.Put("/:id/lines/:index", receiptHandler.UpdateLine)
	receipts.Delete("/:id/lines/:index", receiptHandler.RemoveLine)
	receipts.Post("/:id/validate", confirm, receiptHandler.Validate)

	// Traslados
	transfers := api.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers, deps.TransferPDF, deps.Log)
	transfers.Post("/", confirm, transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/stats", transferHandler.Stats)
	transfers.Get("/variance-report", transferHandler.VarianceReport)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Get("/:id/pdf", transferHandler.PDF)
	transfers.Post("/:id/receive", confirm, transferHandler.Receive)
	transfers.Post("/:id/cancel", confirm, transferHandler.Cancel)

	// Inventarios físicos
	counts := api.Group("/inventory-counts")
	countHandler := NewCountHandler(deps.Counts, deps.CountPDF, deps.Stores, deps.Log)
	counts.Post("/", confirm, countHandler.Create)
	counts.Get("/", countHandler.List)
	counts.Get("/:id", countHandler.GetByID)
	counts.Post("/:id/counts", countHandler.RecordCounts)
	counts.Post("/:id/submit", countHandler.Submit)
	counts.Post("/:id/validate", approve, countHandler.Validate)
	counts.Post("/:id/reject", approve, countHandler.Reject)
	counts.Get("/:id/variance", countHandler.Variance)
	counts.Get("/:id/pdf", countHandler.PDF)

	// Stock y libro de movimientos
	stockHandler := NewStockHandler(deps.Stock, deps.Ledger, deps.Scans, deps.Log)
	stock := api.Group("/stock")
	stock.Get("/:storeId", stockHandler.ListByStore)
	stock.Get("/:storeId/:productId", stockHandler.Get)
	movements := api.Group("/movements")
	movements.Get("/", stockHandler.Movements)
	movements.Get("/report", stockHandler.Report)
	movements.Get("/anomalies", stockHandler.Anomalies)
	movements.Post("/anomalies/scan", approve, stockHandler.ScheduleScan)
	movements.Get("/export", stockHandler.Export)
}
