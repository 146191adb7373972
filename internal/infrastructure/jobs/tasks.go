package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola por defecto de los trabajos en segundo plano.
	QueueDefault = "default"
	// TaskAnomalyScan revisión periódica del libro de movimientos.
	TaskAnomalyScan = "ledger:anomaly_scan"
)

// AnomalyScanPayload ventana hacia atrás (horas) y tiendas a revisar (vacío = todas).
type AnomalyScanPayload struct {
	WindowHours int      `json:"window_hours"`
	StoreIDs    []string `json:"store_ids,omitempty"`
}

// NewAnomalyScanTask construye la tarea de revisión.
func NewAnomalyScanTask(windowHours int, storeIDs ...string) (*asynq.Task, error) {
	data, err := json.Marshal(AnomalyScanPayload{WindowHours: windowHours, StoreIDs: storeIDs})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnomalyScan, data), nil
}
