package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-core/internal/application/count"
	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/application/ledger"
	"github.com/jhoicas/stock-core/internal/application/receipt"
	"github.com/jhoicas/stock-core/internal/application/transfer"
	"github.com/jhoicas/stock-core/internal/domain/validation"
	"github.com/jhoicas/stock-core/internal/infrastructure/events"
	"github.com/jhoicas/stock-core/internal/infrastructure/jobs"
	infrapdf "github.com/jhoicas/stock-core/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/stock-core/internal/interfaces/http"
	"github.com/jhoicas/stock-core/pkg/config"
	"github.com/jhoicas/stock-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "api",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Str("sequences", cfg.Storage.SequenceDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer st.close()

	// Eventos de movimiento: siempre al log; a RabbitMQ si AMQP_URL está definido.
	publishers := events.Multi{events.LogPublisher{Log: log.Component("events")}}
	if cfg.AMQP.URL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer rabbit.Close()
		publishers = append(publishers, rabbit)
	}

	rules := validation.NewEngine(validationRules(cfg.Validation), nil)
	numberer := inventory.NewNumberer(st.sequences, cfg.Numbering.ResetYearly)

	receipts := receipt.NewProcessor(receipt.Deps{
		Tx: st.tx, Receipts: st.receipts, Stock: st.stock, Numberer: numberer, Rules: rules,
		Catalogs: st.catalogs, Events: publishers, Log: log.Zerolog(),
	})
	transfers := transfer.NewOrchestrator(transfer.Deps{
		Tx: st.tx, Transfers: st.transfers, Stock: st.stock, Numberer: numberer, Rules: rules,
		Catalogs: st.catalogs, Events: publishers, Log: log.Zerolog(),
	})
	counts := count.NewReconciler(count.Deps{
		Tx: st.tx, Counts: st.counts, Stock: st.stock, Numberer: numberer, Rules: rules,
		Catalogs: st.catalogs, Events: publishers, Log: log.Zerolog(),
	})
	stockSvc := inventory.NewStockService(st.stock, st.catalogs.Stores)
	ledgerSvc := ledger.NewService(st.movements, anomalyConfig(cfg.Anomaly))

	// Revisión de anomalías bajo demanda; la procesa cmd/worker.
	var scans httpRouter.AnomalyScanScheduler
	if cfg.Jobs.Enabled {
		client := jobs.NewClient(redisOpts(cfg.Redis))
		defer client.Close()
		scans = client
	}

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Core API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Receipts:    receipts,
		Transfers:   transfers,
		Counts:      counts,
		Stock:       stockSvc,
		Ledger:      ledgerSvc,
		CountPDF:    pdfGenerator,
		TransferPDF: pdfGenerator,
		Stores:      st.catalogs.Stores,
		Scans:       scans,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	receipts.WaitAutoSaves()

	log.Info().Msg("aplicación detenida")
}
