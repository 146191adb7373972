package jobs_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-core/internal/application/ledger"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
	"github.com/jhoicas/stock-core/internal/infrastructure/jobs"
	"github.com/jhoicas/stock-core/internal/infrastructure/memory"
)

var now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func movementAt(id string, at time.Time, store string) *entity.MovementRecord {
	return &entity.MovementRecord{
		ID: id, Date: at, CreatedAt: at, Type: entity.MovementAdjustment, StoreID: store, ProductID: "p1",
		QuantityDelta: decimal.NewFromInt(-1), UnitCost: decimal.NewFromInt(10), Value: decimal.NewFromInt(-10),
		CreatedBy: "u1", ReferenceID: "ref-" + id,
	}
}

func newJob(t *testing.T, buf *bytes.Buffer, ms ...*entity.MovementRecord) *jobs.AnomalyScanJob {
	t.Helper()
	repo := memory.NewStore().Movements()
	require.NoError(t, repo.Append(context.Background(), ms...))
	svc := ledger.NewService(repo, ledger.DefaultAnomalyConfig())
	return jobs.NewAnomalyScanJob(svc, zerolog.New(buf), func() time.Time { return now })
}

func TestAnomalyScan_DetectaFueraDeHorarioDentroDeLaVentana(t *testing.T) {
	var buf bytes.Buffer
	job := newJob(t, &buf,
		movementAt("night", now.Add(-9*time.Hour), "s1"), // 03:00
		movementAt("old", now.Add(-48*time.Hour-9*time.Hour), "s1"),
		movementAt("day", now.Add(-2*time.Hour), "s1"),
	)

	found, err := job.Scan(context.Background(), jobs.AnomalyScanPayload{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "night", found[0].MovementID)
	assert.Equal(t, ledger.AnomalyOffHours, found[0].Kind)
	assert.Contains(t, buf.String(), `"movement_id":"night"`)
}

func TestAnomalyScan_FiltraPorTienda(t *testing.T) {
	var buf bytes.Buffer
	job := newJob(t, &buf, movementAt("night", now.Add(-9*time.Hour), "s2"))

	found, err := job.Scan(context.Background(), jobs.AnomalyScanPayload{WindowHours: 12, StoreIDs: []string{"s1"}})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAnomalyScan_HandleConTarea(t *testing.T) {
	var buf bytes.Buffer
	job := newJob(t, &buf, movementAt("night", now.Add(-9*time.Hour), "s1"))

	task, err := jobs.NewAnomalyScanTask(24)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskAnomalyScan, task.Type())
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Contains(t, buf.String(), "revisión de anomalías completada")
}

func TestAnomalyScan_PayloadInvalidoNoSeReintenta(t *testing.T) {
	var buf bytes.Buffer
	job := newJob(t, &buf)

	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskAnomalyScan, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

type failingScanner struct{}

func (failingScanner) ScanAnomalies(context.Context, repository.MovementFilter) ([]ledger.Anomaly, error) {
	return nil, errors.New("db down")
}

func TestAnomalyScan_ErrorDelRepositorioSeReintenta(t *testing.T) {
	job := jobs.NewAnomalyScanJob(failingScanner{}, zerolog.Nop(), nil)
	task, err := jobs.NewAnomalyScanTask(1)
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}
