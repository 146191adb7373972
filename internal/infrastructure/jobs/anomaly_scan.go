package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-core/internal/application/ledger"
	"github.com/jhoicas/stock-core/internal/domain/repository"
)

// DefaultWindowHours ventana de revisión cuando el payload no la indica.
const DefaultWindowHours = 24

// AnomalyScanner lo implementa ledger.Service.
type AnomalyScanner interface {
	ScanAnomalies(ctx context.Context, f repository.MovementFilter) ([]ledger.Anomaly, error)
}

// AnomalyScanJob revisa los movimientos recientes y registra cada hallazgo como advertencia.
type AnomalyScanJob struct {
	scanner AnomalyScanner
	log     zerolog.Logger
	clock   func() time.Time
}

// NewAnomalyScanJob construye el handler.
func NewAnomalyScanJob(scanner AnomalyScanner, log zerolog.Logger, clock func() time.Time) *AnomalyScanJob {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &AnomalyScanJob{scanner: scanner, log: log, clock: clock}
}

// Handle procesa TaskAnomalyScan. Un payload inválido no se reintenta.
func (j *AnomalyScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.scanner == nil {
		return errors.New("anomaly scan: handler no configurado")
	}
	var payload AnomalyScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("anomaly scan: payload inválido: %v: %w", err, asynq.SkipRetry)
	}
	_, err := j.Scan(ctx, payload)
	return err
}

// Scan ejecuta la revisión y devuelve los hallazgos.
func (j *AnomalyScanJob) Scan(ctx context.Context, payload AnomalyScanPayload) ([]ledger.Anomaly, error) {
	if payload.WindowHours <= 0 {
		payload.WindowHours = DefaultWindowHours
	}
	to := j.clock()
	from := to.Add(-time.Duration(payload.WindowHours) * time.Hour)
	log := j.log.With().Int("window_hours", payload.WindowHours).Strs("stores", payload.StoreIDs).Logger()
	log.Info().Msg("iniciando revisión de anomalías")

	anomalies, err := j.scanner.ScanAnomalies(ctx, repository.MovementFilter{From: &from, To: &to, StoreIDs: payload.StoreIDs})
	if err != nil {
		log.Error().Err(err).Msg("revisión de anomalías fallida")
		return nil, err
	}
	for _, a := range anomalies {
		log.Warn().
			Str("movement_id", a.MovementID).
			Str("kind", a.Kind).
			Str("severity", a.Severity).
			Float64("score", a.Score).
			Str("related_id", a.RelatedID).
			Msg(a.Message)
	}
	log.Info().Int("anomalies", len(anomalies)).Msg("revisión de anomalías completada")
	return anomalies, nil
}
