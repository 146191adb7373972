package events

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/domain/entity"
)

var (
	_ inventory.EventPublisher = LogPublisher{}
	_ inventory.EventPublisher = Multi(nil)
)

// LogPublisher escribe cada movimiento confirmado como una línea de log estructurada.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) Publish(_ context.Context, movements []*entity.MovementRecord) error {
	for _, m := range movements {
		p.Log.Info().
			Str("movement_id", m.ID).
			Str("type", string(m.Type)).
			Str("store_id", m.StoreID).
			Str("product_id", m.ProductID).
			Str("quantity_delta", m.QuantityDelta.String()).
			Str("value", m.Value.String()).
			Str("reference", m.ReferenceType+"/"+m.ReferenceID).
			Str("user_id", m.CreatedBy).
			Msg("movimiento registrado")
	}
	return nil
}

// Multi reparte los movimientos a varios publicadores y junta los errores.
type Multi []inventory.EventPublisher

func (m Multi) Publish(ctx context.Context, movements []*entity.MovementRecord) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, movements); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
