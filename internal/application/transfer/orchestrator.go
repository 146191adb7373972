// Package transfer implementa la máquina de estados de los traslados entre tiendas:
// despacho (in_transit), recepción con diferencias y anulación con movimiento compensatorio.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
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

// Deps dependencias del orquestador. Catalogs y Events son opcionales.
type Deps struct {
	Tx        inventory.TxRunner
	Transfers repository.TransferRepository
	Stock     repository.StockLevelRepository
	Numberer  *inventory.Numberer
	Rules     *validation.Engine
	Catalogs  inventory.Catalogs
	Events    inventory.EventPublisher
	Log       zerolog.Logger
	Now       inventory.Clock
}

// Orchestrator TransferOrchestrator.
type Orchestrator struct {
	tx        inventory.TxRunner
	transfers repository.TransferRepository
	stock     repository.StockLevelRepository
	numberer  *inventory.Numberer
	rules     *validation.Engine
	catalogs  inventory.Catalogs
	events    inventory.EventPublisher
	mutator   inventory.StockMutator
	log       zerolog.Logger
	now       inventory.Clock
}

// NewOrchestrator construye el orquestador.
func NewOrchestrator(d Deps) *Orchestrator {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Orchestrator{
		tx:        d.Tx,
		transfers: d.Transfers,
		stock:     d.Stock,
		numberer:  d.Numberer,
		rules:     d.Rules,
		catalogs:  d.Catalogs,
		events:    d.Events,
		mutator:   inventory.NewStockMutator(d.Now),
		log:       d.Log.With().Str("component", "transfer").Logger(),
		now:       d.Now,
	}
}

// LineInput producto y cantidad a despachar.
type LineInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// CreateInput datos de un traslado nuevo.
type CreateInput struct {
	SourceStoreID      string
	DestinationStoreID string
	Lines              []LineInput
	Comment            string
	CreatedBy          string
}

// Create valida y despacha: descuenta la cantidad en origen (movimiento transfer_out al costo
// promedio de origen) y deja el traslado in_transit, todo en una transacción.
func (o *Orchestrator) Create(ctx context.Context, in CreateInput) (*entity.Transfer, validation.Result, error) {
	now := o.now()
	t := &entity.Transfer{
		ID:                 uuid.New().String(),
		SourceStoreID:      in.SourceStoreID,
		DestinationStoreID: in.DestinationStoreID,
		Status:             entity.TransferStatusInTransit,
		Comment:            in.Comment,
		CreatedBy:          in.CreatedBy,
		CreatedAt:          now,
	}
	for _, l := range in.Lines {
		t.Lines = append(t.Lines, entity.TransferLine{ProductID: l.ProductID, QuantitySent: l.Quantity})
	}

	res, err := o.rules.ValidateTransferCreate(t, func(productID string) (decimal.Decimal, error) {
		level, err := o.stock.Get(ctx, t.SourceStoreID, productID)
		if err != nil {
			return decimal.Zero, err
		}
		return level.Available(), nil
	})
	if err != nil {
		return nil, res, err
	}
	refs, err := o.checkReferences(ctx, t)
	if err != nil {
		return nil, res, err
	}
	res.Merge(refs)
	if !res.IsValid() {
		return nil, res, res.Err()
	}

	number, err := o.numberer.Next(ctx, domaininv.PrefixTransfer, now)
	if err != nil {
		return nil, res, err
	}
	t.Number = number

	var dispatched *entity.Transfer
	var movements []*entity.MovementRecord
	err = o.tx.Run(ctx, func(tx inventory.Repos) error {
		doc := t.Clone()
		movements = movements[:0]
		for _, i := range lockOrder(doc.Lines) {
			line := &doc.Lines[i]
			level, err := o.mutator.Issue(ctx, tx.Stock, doc.SourceStoreID, line.ProductID, line.QuantitySent)
			if err != nil {
				return err
			}
			line.UnitCost = level.AverageCost
			movements = append(movements, o.mutator.NewMovement(inventory.MovementInput{
				Type:          entity.MovementTransferOut,
				StoreID:       doc.SourceStoreID,
				ProductID:     line.ProductID,
				QuantityDelta: line.QuantitySent.Neg(),
				UnitCost:      line.UnitCost,
				ReferenceID:   doc.ID,
				ReferenceType: entity.ReferenceTransfer,
				CreatedBy:     doc.CreatedBy,
				Comment:       doc.Number + " hacia " + doc.DestinationStoreID,
			}))
		}
		if err := tx.Movements.Append(ctx, movements...); err != nil {
			return err
		}
		dispatched = doc
		return tx.Transfers.Save(ctx, doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			// otro traslado consumió el stock entre la validación y la confirmación
			return nil, res, err
		}
		o.log.Error().Err(err).Str("transfer", t.Number).Msg("falló el despacho del traslado")
		return nil, res, &domain.ProcessingError{Op: "crear traslado", DocumentID: t.Number, Err: err}
	}

	o.log.Info().Str("transfer", dispatched.Number).Str("from", dispatched.SourceStoreID).
		Str("to", dispatched.DestinationStoreID).Int("lines", len(dispatched.Lines)).Msg("traslado despachado")
	inventory.PublishCommitted(ctx, o.events, o.log, movements)
	return dispatched, res, nil
}

// Receive registra las cantidades recibidas: suma en destino (CUMP al costo despachado),
// calcula diferencias y cierra el traslado como completed o completed_with_variance.
func (o *Orchestrator) Receive(ctx context.Context, id string, received []validation.ReceivedQuantity, comment, receivedBy string) (*entity.Transfer, validation.Result, error) {
	t, err := o.transfers.GetByID(ctx, id)
	if err != nil {
		return nil, validation.Result{}, err
	}
	if t.IsTerminal() {
		return t, validation.Result{}, stateError(t, "recibir")
	}
	res := o.rules.ValidateTransferReception(t, received)
	if !res.IsValid() {
		return t, res, res.Err()
	}
	qty := make(map[string]decimal.Decimal, len(received))
	for _, r := range received {
		qty[r.ProductID] = r.QuantityReceived
	}

	var done *entity.Transfer
	var movements []*entity.MovementRecord
	err = o.tx.Run(ctx, func(tx inventory.Repos) error {
		doc, err := tx.Transfers.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc.IsTerminal() {
			return stateError(doc, "recibir")
		}
		movements = movements[:0]
		withVariance := false
		for _, i := range lockOrder(doc.Lines) {
			line := &doc.Lines[i]
			got := qty[line.ProductID]
			variance := got.Sub(line.QuantitySent)
			line.QuantityReceived = &got
			line.Variance = &variance
			if variance.Abs().GreaterThan(domaininv.VarianceEpsilon) {
				withVariance = true
			}
			if !got.IsPositive() {
				continue
			}
			if _, err := o.mutator.Receive(ctx, tx.Stock, doc.DestinationStoreID, line.ProductID, got, line.UnitCost); err != nil {
				return err
			}
			note := doc.Number + " desde " + doc.SourceStoreID
			if !variance.IsZero() {
				note += fmt.Sprintf(" (enviado %s, diferencia %s)", line.QuantitySent, variance)
			}
			movements = append(movements, o.mutator.NewMovement(inventory.MovementInput{
				Type:          entity.MovementTransferIn,
				StoreID:       doc.DestinationStoreID,
				ProductID:     line.ProductID,
				QuantityDelta: got,
				UnitCost:      line.UnitCost,
				ReferenceID:   doc.ID,
				ReferenceType: entity.ReferenceTransfer,
				CreatedBy:     receivedBy,
				Comment:       note,
			}))
		}
		if err := tx.Movements.Append(ctx, movements...); err != nil {
			return err
		}
		at := o.now()
		doc.Status = entity.TransferStatusCompleted
		if withVariance {
			doc.Status = entity.TransferStatusCompletedWithVariance
		}
		doc.ReceptionComment = comment
		doc.ReceivedBy = receivedBy
		doc.ReceivedAt = &at
		done = doc
		return tx.Transfers.Save(ctx, doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotFound) {
			return t, res, err
		}
		o.log.Error().Err(err).Str("transfer", t.Number).Msg("falló la recepción del traslado; sigue in_transit")
		return t, res, &domain.ProcessingError{Op: "recibir traslado", DocumentID: t.Number, Err: err}
	}

	o.log.Info().Str("transfer", done.Number).Str("status", done.Status).Msg("traslado recibido")
	inventory.PublishCommitted(ctx, o.events, o.log, movements)
	return done, res, nil
}

// Cancel anula un traslado in_transit: devuelve la cantidad al origen con un movimiento
// transfer_in de referencia transfer_cancellation.
func (o *Orchestrator) Cancel(ctx context.Context, id, reason, cancelledBy string) (*entity.Transfer, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &domain.ValidationError{Issues: []*domain.FieldError{{
			Field: "reason", Kind: domain.ErrInvalidInput, Message: "el motivo de anulación es obligatorio",
		}}}
	}
	var cancelled *entity.Transfer
	var movements []*entity.MovementRecord
	err := o.tx.Run(ctx, func(tx inventory.Repos) error {
		doc, err := tx.Transfers.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc.IsTerminal() {
			return stateError(doc, "anular (el traslado ya fue recibido o anulado)")
		}
		movements = movements[:0]
		for _, i := range lockOrder(doc.Lines) {
			line := doc.Lines[i]
			if _, err := o.mutator.Receive(ctx, tx.Stock, doc.SourceStoreID, line.ProductID, line.QuantitySent, line.UnitCost); err != nil {
				return err
			}
			movements = append(movements, o.mutator.NewMovement(inventory.MovementInput{
				Type:          entity.MovementTransferIn,
				StoreID:       doc.SourceStoreID,
				ProductID:     line.ProductID,
				QuantityDelta: line.QuantitySent,
				UnitCost:      line.UnitCost,
				ReferenceID:   doc.ID,
				ReferenceType: entity.ReferenceTransferCancelation,
				CreatedBy:     cancelledBy,
				Comment:       "anulación " + doc.Number + ": " + reason,
			}))
		}
		if err := tx.Movements.Append(ctx, movements...); err != nil {
			return err
		}
		at := o.now()
		doc.Status = entity.TransferStatusCancelled
		doc.CancelReason = reason
		doc.CancelledBy = cancelledBy
		doc.CancelledAt = &at
		cancelled = doc
		return tx.Transfers.Save(ctx, doc)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		o.log.Error().Err(err).Str("transfer_id", id).Msg("falló la anulación del traslado")
		return nil, &domain.ProcessingError{Op: "anular traslado", DocumentID: id, Err: err}
	}

	o.log.Info().Str("transfer", cancelled.Number).Str("reason", reason).Msg("traslado anulado")
	inventory.PublishCommitted(ctx, o.events, o.log, movements)
	return cancelled, nil
}

func (o *Orchestrator) checkReferences(ctx context.Context, t *entity.Transfer) (validation.Result, error) {
	var res validation.Result
	check := func(field string, line int, err error) error {
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			res.Errors = append(res.Errors, &domain.FieldError{Field: field, Line: line, Kind: domain.ErrNotFound, Message: err.Error()})
			return nil
		}
		return err
	}
	if o.catalogs.Stores != nil {
		for field, id := range map[string]string{"source_store_id": t.SourceStoreID, "destination_store_id": t.DestinationStoreID} {
			if id == "" {
				continue
			}
			_, err := o.catalogs.Stores.GetByID(ctx, id)
			if err := check(field, 0, err); err != nil {
				return res, err
			}
		}
	}
	if o.catalogs.Products != nil {
		for i, l := range t.Lines {
			if l.ProductID == "" {
				continue
			}
			_, err := o.catalogs.Products.GetByID(ctx, l.ProductID)
			if err := check("product_id", i+1, err); err != nil {
				return res, err
			}
		}
	}
	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Field < res.Errors[j].Field })
	return res, nil
}

// lockOrder índices de las líneas ordenados por producto: orden de bloqueo determinista.
func lockOrder(lines []entity.TransferLine) []int {
	idx := make([]int, len(lines))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return lines[idx[a]].ProductID < lines[idx[b]].ProductID })
	return idx
}

func stateError(t *entity.Transfer, op string) error {
	return &domain.StateTransitionError{Document: "transfer", ID: t.ID, Status: t.Status, Op: op}
}
