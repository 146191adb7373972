package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo implementa StockLevelRepository con PostgreSQL.
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el repositorio (pool o tx).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

const stockLevelColumns = `store_id, product_id, quantity, reserved_quantity, average_cost, last_updated, version`

func (r *StockLevelRepo) Get(ctx context.Context, storeID, productID string) (*entity.StockLevel, error) {
	return r.get(ctx, storeID, productID, "")
}

// GetForUpdate bloquea la fila dentro de la transacción; si no existe devuelve nivel en cero.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, storeID, productID string) (*entity.StockLevel, error) {
	return r.get(ctx, storeID, productID, " FOR UPDATE")
}

func (r *StockLevelRepo) get(ctx context.Context, storeID, productID, lock string) (*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE store_id = $1 AND product_id = $2` + lock
	l, err := scanStockLevel(r.q.QueryRow(ctx, query, storeID, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.NewStockLevel(storeID, productID), nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Upsert inserta o actualiza si la versión leída sigue vigente; si no, domain.ErrConflict.
func (r *StockLevelRepo) Upsert(ctx context.Context, level *entity.StockLevel) error {
	if err := level.Validate(); err != nil {
		return fmt.Errorf("stock %s/%s: %w", level.StoreID, level.ProductID, err)
	}
	query := `
		INSERT INTO stock_levels (` + stockLevelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7 + 1)
		ON CONFLICT (store_id, product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			reserved_quantity = EXCLUDED.reserved_quantity,
			average_cost = EXCLUDED.average_cost,
			last_updated = EXCLUDED.last_updated,
			version = stock_levels.version + 1
		WHERE stock_levels.version = $7
		RETURNING version`
	var version int64
	err := r.q.QueryRow(ctx, query,
		level.StoreID, level.ProductID, level.Quantity, level.ReservedQuantity,
		level.AverageCost, level.LastUpdated, level.Version,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("stock %s/%s versión %d: %w", level.StoreID, level.ProductID, level.Version, domain.ErrConflict)
	}
	if err != nil {
		return err
	}
	level.Version = version
	return nil
}

func (r *StockLevelRepo) ListByStore(ctx context.Context, storeID string) ([]*entity.StockLevel, error) {
	query := `SELECT ` + stockLevelColumns + ` FROM stock_levels WHERE store_id = $1 ORDER BY product_id`
	rows, err := r.q.Query(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*entity.StockLevel
	for rows.Next() {
		l, err := scanStockLevel(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func scanStockLevel(row pgx.Row) (*entity.StockLevel, error) {
	var l entity.StockLevel
	err := row.Scan(&l.StoreID, &l.ProductID, &l.Quantity, &l.ReservedQuantity, &l.AverageCost, &l.LastUpdated, &l.Version)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
