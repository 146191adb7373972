package count

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/repository"
	"github.com/jhoicas/stock-core/internal/domain/validation"
	"github.com/jhoicas/stock-core/internal/infrastructure/memory"
)

var now = time.Date(2026, 6, 30, 18, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store *memory.Store
	rec   *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	seed := []*entity.StockLevel{
		{StoreID: "s1", ProductID: "p2", Quantity: d("20"), AverageCost: d("5")},
		{StoreID: "s1", ProductID: "p1", Quantity: d("100"), AverageCost: d("12.5")},
		{StoreID: "s1", ProductID: "p3", Quantity: d("0"), AverageCost: d("9")},
		{StoreID: "s2", ProductID: "p1", Quantity: d("7"), AverageCost: d("12")},
	}
	for _, l := range seed {
		require.NoError(t, store.StockLevels().Upsert(ctx, l))
	}
	clock := func() time.Time { return now }
	rec := NewReconciler(Deps{
		Tx:       store.TxRunner(),
		Counts:   store.Counts(),
		Stock:    store.StockLevels(),
		Numberer: inventory.NewNumberer(memory.NewSequenceRepository(), true),
		Rules:    validation.NewEngine(validation.DefaultRules(), clock),
		Log:      zerolog.Nop(),
		Now:      clock,
	})
	return &fixture{store: store, rec: rec}
}

func (f *fixture) counted(t *testing.T, p1, p2 string) *entity.InventoryCount {
	t.Helper()
	ctx := context.Background()
	c, err := f.rec.Create(ctx, "s1", now, "cierre de semestre", "ana")
	require.NoError(t, err)
	_, err = f.rec.RecordCounts(ctx, c.ID, []validation.CountEntry{
		{ProductID: "p1", PhysicalQuantity: d(p1)},
		{ProductID: "p2", PhysicalQuantity: d(p2), Comment: "estante B"},
	})
	require.NoError(t, err)
	return c
}

func TestCreate_SnapshotsPositiveLevels(t *testing.T) {
	f := newFixture(t)
	c, err := f.rec.Create(context.Background(), "s1", time.Time{}, "", "ana")
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-0001", c.Number)
	assert.Equal(t, entity.CountStatusInProgress, c.Status)
	require.Len(t, c.Lines, 2, "p3 con cantidad 0 no entra")
	assert.Equal(t, "p1", c.Lines[0].ProductID)
	assert.True(t, c.Lines[0].TheoreticalQuantity.Equal(d("100")))
	assert.True(t, c.Lines[0].AverageCost.Equal(d("12.5")))
}

func TestRecordCounts_ComputesVarianceValue(t *testing.T) {
	f := newFixture(t)
	c := f.counted(t, "97", "21")

	got, err := f.rec.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	p1 := got.Lines[got.LineByProduct("p1")]
	assert.True(t, p1.Variance.Equal(d("-3")))
	assert.True(t, p1.VarianceValue.Equal(d("-37.5")))
	assert.True(t, got.TotalVariance.Equal(d("-2")))
	assert.True(t, got.TotalVarianceValue.Equal(d("-32.5")))
	assert.Equal(t, "estante B", got.Lines[got.LineByProduct("p2")].Comment)
}

func TestRecordCounts_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.rec.Create(ctx, "s1", now, "", "ana")
	require.NoError(t, err)

	_, err = f.rec.RecordCounts(ctx, c.ID, []validation.CountEntry{{ProductID: "p9", PhysicalQuantity: d("1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.rec.RecordCounts(ctx, c.ID, []validation.CountEntry{{ProductID: "p1", PhysicalQuantity: d("-1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.rec.RecordCounts(ctx, "nope", []validation.CountEntry{{ProductID: "p1", PhysicalQuantity: d("1")}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmit_RequiresAllLinesCounted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.rec.Create(ctx, "s1", now, "", "ana")
	require.NoError(t, err)
	_, err = f.rec.RecordCounts(ctx, c.ID, []validation.CountEntry{{ProductID: "p1", PhysicalQuantity: d("100")}})
	require.NoError(t, err)

	_, _, err = f.rec.Submit(ctx, c.ID)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	got, _ := f.rec.GetByID(ctx, c.ID)
	assert.Equal(t, entity.CountStatusInProgress, got.Status)
}

func TestFullCycle_ValidateAdjustsStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.counted(t, "97", "20")

	sub, res, err := f.rec.Submit(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, res.IsValid())
	assert.Equal(t, entity.CountStatusPendingValidation, sub.Status)

	// no se puede registrar conteos mientras espera validación
	_, err = f.rec.RecordCounts(ctx, c.ID, []validation.CountEntry{{ProductID: "p1", PhysicalQuantity: d("1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	v, err := f.rec.Validate(ctx, c.ID, "jefe")
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusValidated, v.Status)
	assert.Equal(t, "jefe", v.ValidatedBy)

	l, _ := f.store.StockLevels().Get(ctx, "s1", "p1")
	assert.True(t, l.Quantity.Equal(d("97")))
	assert.True(t, l.AverageCost.Equal(d("12.5")))

	movs, _ := f.store.Movements().Query(ctx, repository.MovementFilter{ReferenceID: c.ID})
	require.Len(t, movs, 1, "p2 sin diferencia no genera movimiento")
	assert.Equal(t, entity.MovementAdjustment, movs[0].Type)
	assert.True(t, movs[0].QuantityDelta.Equal(d("-3")))
	assert.True(t, movs[0].Value.Equal(d("-37.5")))

	// para cada línea: valor = (física - teórica) * costo
	for _, line := range v.Lines {
		expected := line.PhysicalQuantity.Sub(line.TheoreticalQuantity).Mul(line.AverageCost)
		assert.True(t, line.VarianceValue.Equal(expected))
	}

	_, err = f.rec.Validate(ctx, c.ID, "jefe")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	l, _ = f.store.StockLevels().Get(ctx, "s1", "p1")
	assert.True(t, l.Quantity.Equal(d("97")), "no se ajusta dos veces")
}

func TestValidate_DeltaAgainstCurrentQuantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.counted(t, "97", "20")
	_, _, err := f.rec.Submit(ctx, c.ID)
	require.NoError(t, err)

	// entre la foto y la validación llegan 10 unidades más
	err = f.store.TxRunner().Run(ctx, func(tx inventory.Repos) error {
		_, err := inventory.NewStockMutator(nil).Receive(ctx, tx.Stock, "s1", "p1", d("10"), d("12.5"))
		return err
	})
	require.NoError(t, err)

	_, err = f.rec.Validate(ctx, c.ID, "jefe")
	require.NoError(t, err)
	movs, _ := f.store.Movements().Query(ctx, repository.MovementFilter{ReferenceID: c.ID})
	require.Len(t, movs, 1)
	assert.True(t, movs[0].QuantityDelta.Equal(d("-13")))
	l, _ := f.store.StockLevels().Get(ctx, "s1", "p1")
	assert.True(t, l.Quantity.Equal(d("97")))
}

func TestReject_KeepsCountsAndAnnotates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.counted(t, "90", "20")
	_, _, err := f.rec.Submit(ctx, c.ID)
	require.NoError(t, err)

	got, err := f.rec.Reject(ctx, c.ID, "jefe", "recontar pasillo 3")
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusInProgress, got.Status)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "[rejected by jefe at 2026-06-30T18:00:00Z] recontar pasillo 3", got.Comments[1])
	assert.True(t, got.Lines[0].PhysicalQuantity.Equal(d("90")), "lo contado se conserva")

	_, err = f.rec.Reject(ctx, c.ID, "jefe", "otra vez")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.rec.Validate(ctx, c.ID, "jefe")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestValidate_ProcessingErrorKeepsPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.counted(t, "97", "20")
	_, _, err := f.rec.Submit(ctx, c.ID)
	require.NoError(t, err)

	// reservar más de lo contado hace que el ajuste viole el invariante reservado <= cantidad
	l, _ := f.store.StockLevels().Get(ctx, "s1", "p1")
	l.ReservedQuantity = d("99")
	require.NoError(t, f.store.StockLevels().Upsert(ctx, l))

	_, err = f.rec.Validate(ctx, c.ID, "jefe")
	var perr *domain.ProcessingError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, domain.ErrNegativeStock)

	got, _ := f.rec.GetByID(ctx, c.ID)
	assert.Equal(t, entity.CountStatusPendingValidation, got.Status)
	movs, _ := f.store.Movements().Query(ctx, repository.MovementFilter{ReferenceID: c.ID})
	assert.Empty(t, movs)
}

func TestVarianceAnalysis(t *testing.T) {
	f := newFixture(t)
	c := f.counted(t, "97", "22")

	a, err := f.rec.GetVarianceAnalysis(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, a.CountedLines)
	assert.Equal(t, 2, a.LinesWithVariance)
	assert.True(t, a.AccuracyRate.IsZero())
	assert.True(t, a.SurplusValue.Equal(d("10")))
	assert.True(t, a.ShortageValue.Equal(d("-37.5")))
	assert.True(t, a.TheoreticalValue.Equal(d("1350")))
	require.Len(t, a.Ranked, 2)
	assert.Equal(t, "p1", a.Ranked[0].ProductID)
}

func TestRejectionNote(t *testing.T) {
	note := RejectionNote("ana", time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("COT", -5*3600)), "x")
	assert.True(t, strings.HasPrefix(note, "[rejected by ana at 2026-01-02T08:04:05Z]"))
}
