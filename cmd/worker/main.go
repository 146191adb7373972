// Command worker procesa los trabajos en segundo plano: la revisión periódica de anomalías
// del libro de movimientos y las revisiones encoladas por la API.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/application/ledger"
	"github.com/jhoicas/stock-core/internal/infrastructure/jobs"
	"github.com/jhoicas/stock-core/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-core/pkg/config"
	"github.com/jhoicas/stock-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "worker"})

	// El libro en memoria vive dentro del proceso de la API; el worker necesita PostgreSQL.
	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatal().Str("storage", cfg.Storage.Driver).Msg("el worker requiere STORAGE_DRIVER=postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	loc, err := time.LoadLocation(cfg.Anomaly.Timezone)
	if err != nil {
		loc = time.UTC
	}
	ledgerSvc := ledger.NewService(postgres.NewMovementRepository(pool), ledger.AnomalyConfig{
		ZScore:            cfg.Anomaly.ZScore,
		MinSample:         cfg.Anomaly.MinSample,
		MaxQuantity:       decimal.NewFromFloat(cfg.Anomaly.MaxQuantity),
		BusinessHourStart: cfg.Anomaly.BusinessHourStart,
		BusinessHourEnd:   cfg.Anomaly.BusinessHourEnd,
		DuplicateWindow:   cfg.Anomaly.DuplicateWindow,
		Location:          loc,
	})
	scanJob := jobs.NewAnomalyScanJob(ledgerSvc, log.Component("anomaly_scan"), nil)

	var cron []jobs.CronRegistration
	if cfg.Anomaly.ScanCron != "" {
		task, err := jobs.NewAnomalyScanTask(cfg.Anomaly.ScanWindowHours)
		if err != nil {
			log.Fatal().Err(err).Msg("tarea periódica de anomalías")
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.Anomaly.ScanCron,
			Task:    task,
			Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		Concurrency: cfg.Jobs.Concurrency,
		Log:         log.Component("worker"),
		Handlers:    []jobs.TaskHandler{{Type: jobs.TaskAnomalyScan, Handler: scanJob.Handle}},
		Cron:        cron,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar worker")
	}

	log.Info().Str("cron", cfg.Anomaly.ScanCron).Int("concurrency", cfg.Jobs.Concurrency).Msg("iniciando worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
	}
	log.Info().Msg("worker detenido")
}
