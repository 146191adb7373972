package inventory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-core/internal/domain/entity"
)

// PublishCommitted envía los movimientos confirmados al sumidero. Un fallo solo se registra:
// la transacción ya está confirmada y no se revierte por el sumidero.
func PublishCommitted(ctx context.Context, pub EventPublisher, log zerolog.Logger, movements []*entity.MovementRecord) {
	if pub == nil || len(movements) == 0 {
		return
	}
	if err := pub.Publish(ctx, movements); err != nil {
		log.Warn().Err(err).Int("movements", len(movements)).
			Str("reference_id", movements[0].ReferenceID).
			Msg("no se pudieron publicar los eventos de movimiento")
	}
}
