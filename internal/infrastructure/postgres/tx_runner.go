package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/domain"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// DefaultMaxAttempts reintentos ante fallos de serialización o deadlock.
const DefaultMaxAttempts = 3

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	maxAttempts int
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool, maxAttempts: DefaultMaxAttempts}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los conflictos de serialización se reintentan; fn debe releer el estado con GetForUpdate.
func (r *TxRunner) Run(ctx context.Context, fn func(tx inventory.Repos) error) error {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) && !errors.Is(err, domain.ErrConflict) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("transacción abortada tras %d intentos: %w", r.maxAttempts, lastErr)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(tx inventory.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(Repositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Repositories construye los repositorios transaccionales sobre q (pool o tx).
func Repositories(q Querier) inventory.Repos {
	return inventory.Repos{
		Stock:     NewStockLevelRepository(q),
		Movements: NewMovementRepository(q),
		Receipts:  NewGoodsReceiptRepository(q),
		Transfers: NewTransferRepository(q),
		Counts:    NewInventoryCountRepository(q),
	}
}
