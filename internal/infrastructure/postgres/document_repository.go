package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// documentQuery arma el WHERE común de listados. storeCols admite varias columnas (origen/destino).
func documentQuery(base, dateCol string, storeCols []string, f repository.DocumentFilter, args *argList, extra ...string) string {
	where := append([]string(nil), extra...)
	if f.StoreID != "" {
		p := args.add(f.StoreID)
		conds := make([]string, len(storeCols))
		for i, c := range storeCols {
			conds[i] = c + " = " + p
		}
		where = append(where, "("+strings.Join(conds, " OR ")+")")
	}
	if f.Status != "" {
		where = append(where, "status = "+args.add(f.Status))
	}
	if f.Number != "" {
		where = append(where, "number = "+args.add(f.Number))
	}
	if f.From != nil {
		where = append(where, dateCol+" >= "+args.add(*f.From))
	}
	if f.To != nil {
		where = append(where, dateCol+" <= "+args.add(*f.To))
	}
	query := base
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, number DESC"
	if f.Limit > 0 {
		query += " LIMIT " + args.add(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + args.add(f.Offset)
	}
	return query
}

// ─── Recepciones ───────────────────────────────────────────────────────────────

var _ repository.GoodsReceiptRepository = (*GoodsReceiptRepo)(nil)

// GoodsReceiptRepo recepciones; las líneas se guardan como JSONB en la misma fila.
type GoodsReceiptRepo struct {
	q Querier
}

// NewGoodsReceiptRepository construye el repositorio (pool o tx).
func NewGoodsReceiptRepository(q Querier) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{q: q}
}

const receiptColumns = `id, number, supplier_id, store_id, date_received, lines, declared_total, total_value,
	status, comment, created_by, created_at, updated_at, validated_by, validated_at`

func (r *GoodsReceiptRepo) Save(ctx context.Context, gr *entity.GoodsReceipt) error {
	lines, err := json.Marshal(gr.Lines)
	if err != nil {
		return fmt.Errorf("serializar líneas: %w", err)
	}
	query := `
		INSERT INTO goods_receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			number = EXCLUDED.number, supplier_id = EXCLUDED.supplier_id, store_id = EXCLUDED.store_id,
			date_received = EXCLUDED.date_received, lines = EXCLUDED.lines,
			declared_total = EXCLUDED.declared_total, total_value = EXCLUDED.total_value,
			status = EXCLUDED.status, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at,
			validated_by = EXCLUDED.validated_by, validated_at = EXCLUDED.validated_at`
	_, err = r.q.Exec(ctx, query,
		gr.ID, gr.Number, gr.SupplierID, gr.StoreID, gr.DateReceived, lines, gr.DeclaredTotal, gr.TotalValue,
		gr.Status, gr.Comment, gr.CreatedBy, gr.CreatedAt, gr.UpdatedAt, gr.ValidatedBy, gr.ValidatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("recepción %s número %s: %w", gr.ID, gr.Number, domain.ErrConflict)
	}
	return err
}

func (r *GoodsReceiptRepo) GetByID(ctx context.Context, id string) (*entity.GoodsReceipt, error) {
	return r.get(ctx, id, "")
}

func (r *GoodsReceiptRepo) GetForUpdate(ctx context.Context, id string) (*entity.GoodsReceipt, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *GoodsReceiptRepo) get(ctx context.Context, id, lock string) (*entity.GoodsReceipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM goods_receipts WHERE id = $1` + lock
	gr, err := scanReceipt(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("goods_receipt", id)
	}
	return gr, err
}

func (r *GoodsReceiptRepo) List(ctx context.Context, f repository.DocumentFilter, supplierID string) ([]*entity.GoodsReceipt, error) {
	var args argList
	var extra []string
	if supplierID != "" {
		extra = append(extra, "supplier_id = "+args.add(supplierID))
	}
	query := documentQuery(`SELECT `+receiptColumns+` FROM goods_receipts`, "date_received", []string{"store_id"}, f, &args, extra...)
	rows, err := r.q.Query(ctx, query, args.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]*entity.GoodsReceipt, 0)
	for rows.Next() {
		gr, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, gr)
	}
	return list, rows.Err()
}

func scanReceipt(row pgx.Row) (*entity.GoodsReceipt, error) {
	var gr entity.GoodsReceipt
	var lines []byte
	var declared *decimal.Decimal
	var validatedAt *time.Time
	err := row.Scan(&gr.ID, &gr.Number, &gr.SupplierID, &gr.StoreID, &gr.DateReceived, &lines, &declared, &gr.TotalValue,
		&gr.Status, &gr.Comment, &gr.CreatedBy, &gr.CreatedAt, &gr.UpdatedAt, &gr.ValidatedBy, &validatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lines, &gr.Lines); err != nil {
		return nil, fmt.Errorf("líneas de recepción %s: %w", gr.ID, err)
	}
	gr.DeclaredTotal = declared
	gr.ValidatedAt = validatedAt
	return &gr, nil
}

// ─── Traslados ─────────────────────────────────────────────────────────────────

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados entre tiendas.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el repositorio (pool o tx).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, number, source_store_id, destination_store_id, lines, status, comment, reception_comment,
	cancel_reason, created_by, created_at, received_by, received_at, cancelled_by, cancelled_at`

func (r *TransferRepo) Save(ctx context.Context, t *entity.Transfer) error {
	lines, err := json.Marshal(t.Lines)
	if err != nil {
		return fmt.Errorf("serializar líneas: %w", err)
	}
	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			lines = EXCLUDED.lines, status = EXCLUDED.status,
			reception_comment = EXCLUDED.reception_comment, cancel_reason = EXCLUDED.cancel_reason,
			received_by = EXCLUDED.received_by, received_at = EXCLUDED.received_at,
			cancelled_by = EXCLUDED.cancelled_by, cancelled_at = EXCLUDED.cancelled_at`
	_, err = r.q.Exec(ctx, query,
		t.ID, t.Number, t.SourceStoreID, t.DestinationStoreID, lines, t.Status, t.Comment, t.ReceptionComment,
		t.CancelReason, t.CreatedBy, t.CreatedAt, t.ReceivedBy, t.ReceivedAt, t.CancelledBy, t.CancelledAt,
	)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("traslado %s número %s: %w", t.ID, t.Number, domain.ErrConflict)
	}
	return err
}

func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, id, "")
}

func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *TransferRepo) get(ctx context.Context, id, lock string) (*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1` + lock
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("transfer", id)
	}
	return t, err
}

func (r *TransferRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Transfer, error) {
	var args argList
	query := documentQuery(`SELECT `+transferColumns+` FROM transfers`, "created_at",
		[]string{"source_store_id", "destination_store_id"}, f, &args)
	rows, err := r.q.Query(ctx, query, args.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]*entity.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	var lines []byte
	err := row.Scan(&t.ID, &t.Number, &t.SourceStoreID, &t.DestinationStoreID, &lines, &t.Status, &t.Comment,
		&t.ReceptionComment, &t.CancelReason, &t.CreatedBy, &t.CreatedAt, &t.ReceivedBy, &t.ReceivedAt,
		&t.CancelledBy, &t.CancelledAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lines, &t.Lines); err != nil {
		return nil, fmt.Errorf("líneas de traslado %s: %w", t.ID, err)
	}
	return &t, nil
}

// ─── Inventarios ───────────────────────────────────────────────────────────────

var _ repository.InventoryCountRepository = (*InventoryCountRepo)(nil)

// InventoryCountRepo inventarios físicos.
type InventoryCountRepo struct {
	q Querier
}

// NewInventoryCountRepository construye el repositorio (pool o tx).
func NewInventoryCountRepository(q Querier) *InventoryCountRepo {
	return &InventoryCountRepo{q: q}
}

const countColumns = `id, number, store_id, date, lines, status, total_variance, total_variance_value, comments,
	created_by, created_at, submitted_at, validated_by, validated_at`

func (r *InventoryCountRepo) Save(ctx context.Context, c *entity.InventoryCount) error {
	lines, err := json.Marshal(c.Lines)
	if err != nil {
		return fmt.Errorf("serializar líneas: %w", err)
	}
	comments := c.Comments
	if comments == nil {
		comments = []string{}
	}
	query := `
		INSERT INTO inventory_counts (` + countColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			lines = EXCLUDED.lines, status = EXCLUDED.status,
			total_variance = EXCLUDED.total_variance, total_variance_value = EXCLUDED.total_variance_value,
			comments = EXCLUDED.comments, submitted_at = EXCLUDED.submitted_at,
			validated_by = EXCLUDED.validated_by, validated_at = EXCLUDED.validated_at`
	_, err = r.q.Exec(ctx, query,
		c.ID, c.Number, c.StoreID, c.Date, lines, c.Status, c.TotalVariance, c.TotalVarianceValue, comments,
		c.CreatedBy, c.CreatedAt, c.SubmittedAt, c.ValidatedBy, c.ValidatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("inventario %s número %s: %w", c.ID, c.Number, domain.ErrConflict)
	}
	return err
}

func (r *InventoryCountRepo) GetByID(ctx context.Context, id string) (*entity.InventoryCount, error) {
	return r.get(ctx, id, "")
}

func (r *InventoryCountRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryCount, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *InventoryCountRepo) get(ctx context.Context, id, lock string) (*entity.InventoryCount, error) {
	query := `SELECT ` + countColumns + ` FROM inventory_counts WHERE id = $1` + lock
	c, err := scanCount(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("inventory_count", id)
	}
	return c, err
}

func (r *InventoryCountRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.InventoryCount, error) {
	var args argList
	query := documentQuery(`SELECT `+countColumns+` FROM inventory_counts`, "date", []string{"store_id"}, f, &args)
	rows, err := r.q.Query(ctx, query, args.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]*entity.InventoryCount, 0)
	for rows.Next() {
		c, err := scanCount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCount(row pgx.Row) (*entity.InventoryCount, error) {
	var c entity.InventoryCount
	var lines []byte
	err := row.Scan(&c.ID, &c.Number, &c.StoreID, &c.Date, &lines, &c.Status, &c.TotalVariance, &c.TotalVarianceValue,
		&c.Comments, &c.CreatedBy, &c.CreatedAt, &c.SubmittedAt, &c.ValidatedBy, &c.ValidatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lines, &c.Lines); err != nil {
		return nil, fmt.Errorf("líneas de inventario %s: %w", c.ID, err)
	}
	return &c, nil
}
