// Package count implementa el inventario físico: foto del stock teórico, conteo,
// envío a validación, validación con ajustes y rechazo con anotación.
package count

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

// Deps dependencias del reconciliador. Catalogs y Events son opcionales.
type Deps struct {
	Tx       inventory.TxRunner
	Counts   repository.InventoryCountRepository
	Stock    repository.StockLevelRepository
	Numberer *inventory.Numberer
	Rules    *validation.Engine
	Catalogs inventory.Catalogs
	Events   inventory.EventPublisher
	Log      zerolog.Logger
	Now      inventory.Clock
}

// Reconciler InventoryCountReconciler.
type Reconciler struct {
	tx       inventory.TxRunner
	counts   repository.InventoryCountRepository
	stock    repository.StockLevelRepository
	numberer *inventory.Numberer
	rules    *validation.Engine
	catalogs inventory.Catalogs
	events   inventory.EventPublisher
	mutator  inventory.StockMutator
	log      zerolog.Logger
	now      inventory.Clock
}

// NewReconciler construye el reconciliador.
func NewReconciler(d Deps) *Reconciler {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Reconciler{
		tx:       d.Tx,
		counts:   d.Counts,
		stock:    d.Stock,
		numberer: d.Numberer,
		rules:    d.Rules,
		catalogs: d.Catalogs,
		events:   d.Events,
		mutator:  inventory.NewStockMutator(d.Now),
		log:      d.Log.With().Str("component", "inventory_count").Logger(),
		now:      d.Now,
	}
}

// Create toma la foto de todos los niveles con cantidad > 0 de la tienda. La cantidad teórica
// y el costo promedio quedan fijos desde este momento.
func (r *Reconciler) Create(ctx context.Context, storeID string, date time.Time, comment, createdBy string) (*entity.InventoryCount, error) {
	if storeID == "" {
		return nil, &domain.ValidationError{Issues: []*domain.FieldError{{Field: "store_id", Kind: domain.ErrInvalidInput, Message: "tienda requerida"}}}
	}
	if r.catalogs.Stores != nil {
		if _, err := r.catalogs.Stores.GetByID(ctx, storeID); err != nil {
			return nil, err
		}
	}
	now := r.now()
	if date.IsZero() {
		date = now
	}
	c := &entity.InventoryCount{
		ID:                 uuid.New().String(),
		StoreID:            storeID,
		Date:               date,
		Status:             entity.CountStatusInProgress,
		TotalVariance:      decimal.Zero,
		TotalVarianceValue: decimal.Zero,
		CreatedBy:          createdBy,
		CreatedAt:          now,
	}
	if strings.TrimSpace(comment) != "" {
		c.Comments = append(c.Comments, comment)
	}

	number, err := r.numberer.Next(ctx, domaininv.PrefixInventoryCount, date)
	if err != nil {
		return nil, err
	}
	c.Number = number

	err = r.tx.Run(ctx, func(tx inventory.Repos) error {
		levels, err := tx.Stock.ListByStore(ctx, storeID)
		if err != nil {
			return err
		}
		sort.Slice(levels, func(i, j int) bool { return levels[i].ProductID < levels[j].ProductID })
		c.Lines = c.Lines[:0]
		for _, l := range levels {
			if !l.Quantity.IsPositive() {
				continue
			}
			c.Lines = append(c.Lines, entity.InventoryCountLine{
				ProductID:           l.ProductID,
				TheoreticalQuantity: l.Quantity,
				AverageCost:         l.AverageCost,
			})
		}
		return tx.Counts.Save(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("crear inventario %s: %w", number, err)
	}
	r.log.Info().Str("count", c.Number).Str("store", storeID).Int("lines", len(c.Lines)).Msg("inventario creado")
	return c, nil
}

// RecordCounts registra cantidades físicas; calcula diferencia y valor de cada línea y los totales.
func (r *Reconciler) RecordCounts(ctx context.Context, id string, entries []validation.CountEntry) (*entity.InventoryCount, error) {
	var updated *entity.InventoryCount
	err := r.tx.Run(ctx, func(tx inventory.Repos) error {
		c, err := tx.Counts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != entity.CountStatusInProgress {
			return stateError(c, "registrar conteos")
		}
		if res := r.rules.ValidateCountEntries(c, entries); !res.IsValid() {
			return res.Err()
		}
		for _, e := range entries {
			line := &c.Lines[c.LineByProduct(e.ProductID)]
			physical := e.PhysicalQuantity
			variance := physical.Sub(line.TheoreticalQuantity)
			value := variance.Mul(line.AverageCost)
			line.PhysicalQuantity = &physical
			line.Variance = &variance
			line.VarianceValue = &value
			if e.Comment != "" {
				line.Comment = e.Comment
			}
		}
		c.RecalculateTotals()
		updated = c
		return tx.Counts.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Submit envía a validación: todas las líneas contadas y validación estricta.
func (r *Reconciler) Submit(ctx context.Context, id string) (*entity.InventoryCount, validation.Result, error) {
	var res validation.Result
	var submitted *entity.InventoryCount
	err := r.tx.Run(ctx, func(tx inventory.Repos) error {
		c, err := tx.Counts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != entity.CountStatusInProgress {
			return stateError(c, "enviar a validación")
		}
		res = r.rules.ValidateCountSubmission(c)
		if !res.IsValid() {
			return res.Err()
		}
		at := r.now()
		c.Status = entity.CountStatusPendingValidation
		c.SubmittedAt = &at
		submitted = c
		return tx.Counts.Save(ctx, c)
	})
	if err != nil {
		return nil, res, err
	}
	return submitted, res, nil
}

// Validate aplica el conteo: fija la cantidad de cada producto en la física y registra un
// movimiento adjustment con el delta (con signo) frente a la cantidad actual.
// Si la confirmación falla el inventario queda pending_validation.
func (r *Reconciler) Validate(ctx context.Context, id, validatedBy string) (*entity.InventoryCount, error) {
	var validated *entity.InventoryCount
	var movements []*entity.MovementRecord
	err := r.tx.Run(ctx, func(tx inventory.Repos) error {
		c, err := tx.Counts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != entity.CountStatusPendingValidation {
			return stateError(c, "validar")
		}
		movements = movements[:0]
		for _, line := range c.Lines {
			if line.PhysicalQuantity == nil {
				return fmt.Errorf("línea %s sin conteo: %w", line.ProductID, domain.ErrBusinessRule)
			}
			_, delta, err := r.mutator.SetQuantity(ctx, tx.Stock, c.StoreID, line.ProductID, *line.PhysicalQuantity)
			if err != nil {
				return err
			}
			if delta.IsZero() {
				continue
			}
			movements = append(movements, r.mutator.NewMovement(inventory.MovementInput{
				Type:          entity.MovementAdjustment,
				StoreID:       c.StoreID,
				ProductID:     line.ProductID,
				QuantityDelta: delta,
				UnitCost:      line.AverageCost,
				ReferenceID:   c.ID,
				ReferenceType: entity.ReferenceInventoryCount,
				CreatedBy:     validatedBy,
				Comment:       strings.TrimSpace(c.Number + " " + line.Comment),
			}))
		}
		if err := tx.Movements.Append(ctx, movements...); err != nil {
			return err
		}
		at := r.now()
		c.Status = entity.CountStatusValidated
		c.ValidatedBy = validatedBy
		c.ValidatedAt = &at
		validated = c
		return tx.Counts.Save(ctx, c)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		r.log.Error().Err(err).Str("count_id", id).Msg("falló la validación del inventario; sigue pending_validation")
		return nil, &domain.ProcessingError{Op: "validar inventario", DocumentID: id, Err: err}
	}

	r.log.Info().Str("count", validated.Number).Int("adjustments", len(movements)).
		Str("variance_value", validated.TotalVarianceValue.StringFixed(2)).Msg("inventario validado")
	inventory.PublishCommitted(ctx, r.events, r.log, movements)
	return validated, nil
}

// Reject devuelve el inventario a in_progress conservando lo contado y anota el motivo.
func (r *Reconciler) Reject(ctx context.Context, id, rejectedBy, reason string) (*entity.InventoryCount, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &domain.ValidationError{Issues: []*domain.FieldError{{Field: "reason", Kind: domain.ErrInvalidInput, Message: "el motivo de rechazo es obligatorio"}}}
	}
	var rejected *entity.InventoryCount
	err := r.tx.Run(ctx, func(tx inventory.Repos) error {
		c, err := tx.Counts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != entity.CountStatusPendingValidation {
			return stateError(c, "rechazar")
		}
		c.Status = entity.CountStatusInProgress
		c.SubmittedAt = nil
		c.Comments = append(c.Comments, RejectionNote(rejectedBy, r.now(), reason))
		rejected = c
		return tx.Counts.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// RejectionNote formato de la anotación de rechazo en la traza de comentarios.
func RejectionNote(user string, at time.Time, reason string) string {
	return fmt.Sprintf("[rejected by %s at %s] %s", user, at.UTC().Format(time.RFC3339), reason)
}

func stateError(c *entity.InventoryCount, op string) error {
	return &domain.StateTransitionError{Document: "inventory_count", ID: c.ID, Status: c.Status, Op: op}
}
