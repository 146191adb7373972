package receipt

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/validation"
)

// LineInput datos de una línea de recepción.
type LineInput struct {
	ProductID        string
	QuantityReceived decimal.Decimal
	UnitCost         decimal.Decimal
}

// Edit carga el borrador persistido, aplica fn y lo vuelve a guardar en modo borrador.
func (p *Processor) Edit(ctx context.Context, id string, fn func(r *entity.GoodsReceipt) error) (*entity.GoodsReceipt, validation.Result, error) {
	r, err := p.receipts.GetByID(ctx, id)
	if err != nil {
		return nil, validation.Result{}, err
	}
	if r.IsTerminal() {
		return r, validation.Result{}, stateError(r, "modificar")
	}
	if err := fn(r); err != nil {
		return r, validation.Result{}, err
	}
	res, err := p.SaveDraft(ctx, r)
	return r, res, err
}

// AddLine agrega una línea a un borrador persistido.
func (p *Processor) AddLine(ctx context.Context, id string, in LineInput) (*entity.GoodsReceipt, validation.Result, error) {
	return p.Edit(ctx, id, func(r *entity.GoodsReceipt) error {
		return r.AddLine(in.ProductID, in.QuantityReceived, in.UnitCost)
	})
}

// UpdateLine modifica la línea index (0-based); el subtotal se recalcula.
func (p *Processor) UpdateLine(ctx context.Context, id string, index int, productID *string, qty, unitCost *decimal.Decimal) (*entity.GoodsReceipt, validation.Result, error) {
	return p.Edit(ctx, id, func(r *entity.GoodsReceipt) error {
		return r.UpdateLine(index, productID, qty, unitCost)
	})
}

// RemoveLine elimina la línea index (0-based).
func (p *Processor) RemoveLine(ctx context.Context, id string, index int) (*entity.GoodsReceipt, validation.Result, error) {
	return p.Edit(ctx, id, func(r *entity.GoodsReceipt) error {
		return r.RemoveLine(index)
	})
}
