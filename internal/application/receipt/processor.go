// Package receipt implementa el ciclo borrador/validación de las recepciones de mercancía de proveedores.
package receipt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-core/internal/domain/inventory"
	"github.com/jhoicas/stock-core/internal/domain/repository"
	"github.com/jhoicas/stock-core/internal/domain/validation"
)

// Deps dependencias del procesador. Catalogs y Events son opcionales.
type Deps struct {
	Tx       inventory.TxRunner
	Receipts repository.GoodsReceiptRepository
	Stock    repository.StockLevelRepository
	Numberer *inventory.Numberer
	Rules    *validation.Engine
	Catalogs inventory.Catalogs
	Events   inventory.EventPublisher
	Log      zerolog.Logger
	Now      inventory.Clock
}

// Processor GoodsReceiptProcessor: borradores, auto-guardado y confirmación con CUMP.
type Processor struct {
	tx       inventory.TxRunner
	receipts repository.GoodsReceiptRepository
	stock    repository.StockLevelRepository
	numberer *inventory.Numberer
	rules    *validation.Engine
	catalogs inventory.Catalogs
	events   inventory.EventPublisher
	mutator  inventory.StockMutator
	log      zerolog.Logger
	now      inventory.Clock

	autosaves sync.WaitGroup
}

// NewProcessor construye el procesador.
func NewProcessor(d Deps) *Processor {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Processor{
		tx:       d.Tx,
		receipts: d.Receipts,
		stock:    d.Stock,
		numberer: d.Numberer,
		rules:    d.Rules,
		catalogs: d.Catalogs,
		events:   d.Events,
		mutator:  inventory.NewStockMutator(d.Now),
		log:      d.Log.With().Str("component", "goods_receipt").Logger(),
		now:      d.Now,
	}
}

// CreateDraft devuelve un borrador nuevo sin persistir (sin número hasta el primer guardado).
func (p *Processor) CreateDraft(supplierID, storeID string, date time.Time, createdBy string) *entity.GoodsReceipt {
	now := p.now()
	if date.IsZero() {
		date = now
	}
	return &entity.GoodsReceipt{
		ID:           uuid.New().String(),
		SupplierID:   supplierID,
		StoreID:      storeID,
		DateReceived: date,
		Status:       entity.ReceiptStatusDraft,
		TotalValue:   decimal.Zero,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SaveDraft valida en modo borrador, asigna número si falta y persiste con estado draft.
func (p *Processor) SaveDraft(ctx context.Context, r *entity.GoodsReceipt) (validation.Result, error) {
	if r.IsTerminal() {
		return validation.Result{}, stateError(r, "guardar borrador")
	}
	r.Recalculate()
	res := p.rules.ValidateReceipt(r, validation.Draft, nil)
	if !res.IsValid() {
		return res, res.Err()
	}
	if err := p.persistDraft(ctx, r); err != nil {
		return res, err
	}
	return res, nil
}

// AutoSave persiste la edición en curso en segundo plano. Nunca devuelve error ni bloquea:
// los fallos solo se registran en el log.
func (p *Processor) AutoSave(ctx context.Context, r *entity.GoodsReceipt) {
	if r.IsTerminal() {
		return
	}
	// El número se asigna aquí, sobre el documento del llamador, para que un guardado posterior lo conserve.
	if err := p.assignNumber(ctx, r); err != nil {
		p.log.Warn().Err(err).Str("receipt_id", r.ID).Msg("auto-guardado sin número")
	}
	snapshot := r.Clone()
	snapshot.Recalculate()
	_ = p.rules.ValidateReceipt(snapshot, validation.AutoSave, nil)

	p.autosaves.Add(1)
	go func() {
		defer p.autosaves.Done()
		defer func() {
			if rec := recover(); rec != nil {
				p.log.Error().Interface("panic", rec).Str("receipt_id", snapshot.ID).Msg("auto-guardado interrumpido")
			}
		}()
		if err := p.persistDraft(context.WithoutCancel(ctx), snapshot); err != nil {
			p.log.Warn().Err(err).Str("receipt_id", snapshot.ID).Msg("auto-guardado fallido")
		}
	}()
}

// WaitAutoSaves espera los auto-guardados en curso (apagado ordenado y pruebas).
func (p *Processor) WaitAutoSaves() {
	p.autosaves.Wait()
}

// assignNumber asigna el número en el primer guardado. Si el documento ya está persistido con número
// se reutiliza ese en lugar de consumir otro de la secuencia.
func (p *Processor) assignNumber(ctx context.Context, r *entity.GoodsReceipt) error {
	if r.Number != "" {
		return nil
	}
	stored, err := p.receipts.GetByID(ctx, r.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if stored != nil && stored.Number != "" {
		r.Number = stored.Number
		return nil
	}
	number, err := p.numberer.Next(ctx, domaininv.PrefixGoodsReceipt, r.DateReceived)
	if err != nil {
		return err
	}
	r.Number = number
	return nil
}

// persistDraft guarda el borrador dentro de una tx; nunca pisa un documento ya validado
// ni cambia el número que ya tiene guardado.
func (p *Processor) persistDraft(ctx context.Context, r *entity.GoodsReceipt) error {
	if err := p.assignNumber(ctx, r); err != nil {
		return err
	}
	r.UpdatedAt = p.now()
	draft := r.Clone()
	return p.tx.Run(ctx, func(tx inventory.Repos) error {
		cur, err := tx.Receipts.GetForUpdate(ctx, draft.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if cur != nil {
			if cur.IsTerminal() {
				return stateError(cur, "guardar borrador")
			}
			if cur.Number != "" && cur.Number != draft.Number {
				draft.Number = cur.Number
				r.Number = cur.Number
			}
		}
		return tx.Receipts.Save(ctx, draft)
	})
}

// ValidateAndCommit validación estricta y confirmación: por línea CUMP + cantidad + movimiento arrival,
// y el recibo pasa a validated. Si la confirmación falla el recibo vuelve a draft con sus datos
// intactos y se devuelve *domain.ProcessingError.
func (p *Processor) ValidateAndCommit(ctx context.Context, r *entity.GoodsReceipt, validatedBy string) (validation.Result, error) {
	if r.IsTerminal() {
		return validation.Result{}, stateError(r, "validar")
	}
	r.Recalculate()

	// Primero se guarda el borrador: lo capturado nunca se pierde.
	if draftRes := p.rules.ValidateReceipt(r, validation.Draft, nil); draftRes.IsValid() {
		if err := p.persistDraft(ctx, r); err != nil {
			if errors.Is(err, domain.ErrInvalidState) {
				return validation.Result{}, err
			}
			return validation.Result{}, &domain.ProcessingError{Op: "guardar borrador", DocumentID: r.ID, Err: err}
		}
	}

	costs, err := p.currentCosts(ctx, r)
	if err != nil {
		return validation.Result{}, err
	}
	res := p.rules.ValidateReceipt(r, validation.Strict, costs)
	refs, err := p.checkReferences(ctx, r)
	if err != nil {
		return res, err
	}
	res.Merge(refs)
	if !res.IsValid() {
		return res, res.Err()
	}

	var committed *entity.GoodsReceipt
	var movements []*entity.MovementRecord
	err = p.tx.Run(ctx, func(tx inventory.Repos) error {
		movements = movements[:0]
		cur, err := tx.Receipts.GetForUpdate(ctx, r.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if cur != nil && cur.IsTerminal() {
			return stateError(cur, "validar")
		}
		for _, line := range r.Lines {
			if _, err := p.mutator.Receive(ctx, tx.Stock, r.StoreID, line.ProductID, line.QuantityReceived, line.UnitCost); err != nil {
				return err
			}
			movements = append(movements, p.mutator.NewMovement(inventory.MovementInput{
				Type:          entity.MovementArrival,
				StoreID:       r.StoreID,
				ProductID:     line.ProductID,
				QuantityDelta: line.QuantityReceived,
				UnitCost:      line.UnitCost,
				ReferenceID:   r.ID,
				ReferenceType: entity.ReferenceGoodsReceipt,
				CreatedBy:     validatedBy,
				Comment:       r.Number,
			}))
		}
		if err := tx.Movements.Append(ctx, movements...); err != nil {
			return err
		}
		validated := r.Clone()
		at := p.now()
		validated.Status = entity.ReceiptStatusValidated
		validated.ValidatedBy = validatedBy
		validated.ValidatedAt = &at
		validated.UpdatedAt = at
		committed = validated
		return tx.Receipts.Save(ctx, validated)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return res, err
		}
		p.rollback(ctx, r, err)
		return res, &domain.ProcessingError{Op: "validar recepción", DocumentID: r.Number, Err: err}
	}

	*r = *committed
	p.log.Info().Str("receipt", r.Number).Int("lines", len(r.Lines)).Str("total", r.TotalValue.StringFixed(2)).Msg("recepción validada")
	inventory.PublishCommitted(ctx, p.events, p.log, movements)
	return res, nil
}

// rollback deja el recibo en draft con los campos de validación vacíos y lo vuelve a guardar.
func (p *Processor) rollback(ctx context.Context, r *entity.GoodsReceipt, cause error) {
	p.log.Error().Err(cause).Str("receipt", r.Number).Msg("falló la confirmación de la recepción; se revierte a borrador")
	r.Status = entity.ReceiptStatusDraft
	r.ValidatedBy = ""
	r.ValidatedAt = nil
	if err := p.persistDraft(context.WithoutCancel(ctx), r); err != nil {
		p.log.Error().Err(err).Str("receipt", r.Number).Msg("no se pudo volver a guardar el borrador")
	}
}

func (p *Processor) currentCosts(ctx context.Context, r *entity.GoodsReceipt) (map[string]decimal.Decimal, error) {
	if p.stock == nil || r.StoreID == "" {
		return nil, nil
	}
	costs := make(map[string]decimal.Decimal, len(r.Lines))
	for _, l := range r.Lines {
		if l.ProductID == "" {
			continue
		}
		level, err := p.stock.Get(ctx, r.StoreID, l.ProductID)
		if err != nil {
			return nil, err
		}
		if level.Quantity.IsPositive() {
			costs[l.ProductID] = level.AverageCost
		}
	}
	return costs, nil
}

// checkReferences verifica proveedor, tienda y productos contra los catálogos configurados.
func (p *Processor) checkReferences(ctx context.Context, r *entity.GoodsReceipt) (validation.Result, error) {
	var res validation.Result
	missing := func(field string, line int, err error) error {
		if errors.Is(err, domain.ErrNotFound) {
			res.Errors = append(res.Errors, &domain.FieldError{Field: field, Line: line, Kind: domain.ErrNotFound, Message: err.Error()})
			return nil
		}
		return err
	}
	if p.catalogs.Suppliers != nil && r.SupplierID != "" {
		if _, err := p.catalogs.Suppliers.GetByID(ctx, r.SupplierID); err != nil {
			if err := missing("supplier_id", 0, err); err != nil {
				return res, err
			}
		}
	}
	if p.catalogs.Stores != nil && r.StoreID != "" {
		if _, err := p.catalogs.Stores.GetByID(ctx, r.StoreID); err != nil {
			if err := missing("store_id", 0, err); err != nil {
				return res, err
			}
		}
	}
	if p.catalogs.Products != nil {
		for i, l := range r.Lines {
			if l.ProductID == "" {
				continue
			}
			if _, err := p.catalogs.Products.GetByID(ctx, l.ProductID); err != nil {
				if err := missing("product_id", i+1, err); err != nil {
					return res, err
				}
			}
		}
	}
	return res, nil
}

func stateError(r *entity.GoodsReceipt, op string) error {
	return &domain.StateTransitionError{Document: "goods_receipt", ID: r.ID, Status: r.Status, Op: op}
}
