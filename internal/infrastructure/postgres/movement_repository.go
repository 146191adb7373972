package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos en PostgreSQL. La tabla no admite UPDATE ni DELETE (ver migración).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el repositorio (pool o tx).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, date, type, store_id, product_id, quantity_delta, unit_cost, value,
	reference_id, reference_type, created_by, created_at, comment`

// Append inserta los movimientos en un único batch.
func (r *MovementRepo) Append(ctx context.Context, movements ...*entity.MovementRecord) error {
	if len(movements) == 0 {
		return nil
	}
	query := `INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	batch := &pgx.Batch{}
	for _, m := range movements {
		batch.Queue(query,
			m.ID, m.Date, string(m.Type), m.StoreID, m.ProductID, m.QuantityDelta, m.UnitCost, m.Value,
			m.ReferenceID, m.ReferenceType, m.CreatedBy, m.CreatedAt, m.Comment,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for _, m := range movements {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insertar movimiento %s: %w", m.ID, err)
		}
	}
	return nil
}

// Query construye el WHERE dinámicamente; orden: fecha desc, creación desc, id.
func (r *MovementRepo) Query(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementRecord, error) {
	var args argList
	var where []string
	if f.From != nil {
		where = append(where, "date >= "+args.add(*f.From))
	}
	if f.To != nil {
		where = append(where, "date <= "+args.add(*f.To))
	}
	if len(f.StoreIDs) > 0 {
		where = append(where, "store_id = ANY("+args.add(f.StoreIDs)+")")
	}
	if len(f.ProductIDs) > 0 {
		where = append(where, "product_id = ANY("+args.add(f.ProductIDs)+")")
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		where = append(where, "type = ANY("+args.add(types)+")")
	}
	if len(f.UserIDs) > 0 {
		where = append(where, "created_by = ANY("+args.add(f.UserIDs)+")")
	}
	if f.ReferenceType != "" {
		where = append(where, "reference_type = "+args.add(f.ReferenceType))
	}
	if f.ReferenceID != "" {
		where = append(where, "reference_id = "+args.add(f.ReferenceID))
	}
	if f.Search != "" {
		p := args.add("%" + strings.ToLower(f.Search) + "%")
		where = append(where, fmt.Sprintf("(LOWER(product_id) LIKE %s OR LOWER(reference_id) LIKE %s OR LOWER(comment) LIKE %s)", p, p, p))
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT " + args.add(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + args.add(f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*entity.MovementRecord
	for rows.Next() {
		var m entity.MovementRecord
		var typ string
		if err := rows.Scan(&m.ID, &m.Date, &typ, &m.StoreID, &m.ProductID, &m.QuantityDelta, &m.UnitCost, &m.Value,
			&m.ReferenceID, &m.ReferenceType, &m.CreatedBy, &m.CreatedAt, &m.Comment); err != nil {
			return nil, err
		}
		m.Type = entity.MovementType(typ)
		list = append(list, &m)
	}
	return list, rows.Err()
}
