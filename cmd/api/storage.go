package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/application/ledger"
	"github.com/jhoicas/stock-core/internal/domain/repository"
	"github.com/jhoicas/stock-core/internal/domain/validation"
	"github.com/jhoicas/stock-core/internal/infrastructure/memory"
	"github.com/jhoicas/stock-core/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-core/internal/infrastructure/sequence"
	"github.com/jhoicas/stock-core/pkg/config"
	"github.com/jhoicas/stock-core/pkg/logger"
)

// storage repositorios de lectura fuera de transacción más el TxRunner del backend elegido.
type storage struct {
	tx        inventory.TxRunner
	stock     repository.StockLevelRepository
	movements repository.MovementRepository
	receipts  repository.GoodsReceiptRepository
	transfers repository.TransferRepository
	counts    repository.InventoryCountRepository
	sequences repository.SequenceRepository
	catalogs  inventory.Catalogs
	closers   []func()
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStorage abre el backend configurado. En memoria no se verifican catálogos.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	st := &storage{}
	var pool *pgxpool.Pool

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		var err error
		pool, err = postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		st.closers = append(st.closers, pool.Close)
		if cfg.Storage.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				st.close()
				return nil, fmt.Errorf("migraciones: %w", err)
			}
		}
		st.tx = postgres.NewTxRunner(pool)
		repos := postgres.Repositories(pool)
		st.stock, st.movements = repos.Stock, repos.Movements
		st.receipts, st.transfers, st.counts = repos.Receipts, repos.Transfers, repos.Counts
		st.catalogs = inventory.Catalogs{
			Products:  postgres.NewProductRepository(pool),
			Stores:    postgres.NewStoreRepository(pool),
			Suppliers: postgres.NewSupplierRepository(pool),
		}
	default:
		mem := memory.NewStore()
		st.tx = mem.TxRunner()
		st.stock, st.movements = mem.StockLevels(), mem.Movements()
		st.receipts, st.transfers, st.counts = mem.Receipts(), mem.Transfers(), mem.Counts()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	}

	switch cfg.Storage.SequenceDriver {
	case config.DriverRedis:
		seq := sequence.NewRedisSequence(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := seq.Ping(ctx); err != nil {
			st.close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		st.closers = append(st.closers, func() { _ = seq.Close() })
		st.sequences = seq
	case config.DriverPostgres:
		st.sequences = postgres.NewSequenceRepository(pool)
	default:
		st.sequences = memory.NewSequenceRepository()
	}
	return st, nil
}

func validationRules(cfg config.ValidationConfig) validation.Rules {
	return validation.Rules{
		LargeLineCount:       cfg.LargeLineCount,
		VarianceWarningRatio: decimal.NewFromFloat(cfg.VarianceWarningRatio),
		CostDeviationRatio:   decimal.NewFromFloat(cfg.CostDeviationRatio),
	}
}

func anomalyConfig(cfg config.AnomalyConfig) ledger.AnomalyConfig {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return ledger.AnomalyConfig{
		ZScore:            cfg.ZScore,
		MinSample:         cfg.MinSample,
		MaxQuantity:       decimal.NewFromFloat(cfg.MaxQuantity),
		BusinessHourStart: cfg.BusinessHourStart,
		BusinessHourEnd:   cfg.BusinessHourEnd,
		DuplicateWindow:   cfg.DuplicateWindow,
		Location:          loc,
	}
}

func redisOpts(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}
