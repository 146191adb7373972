package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-core/internal/domain/entity"
)

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestGenerateCountReport(t *testing.T) {
	c := &entity.InventoryCount{
		ID: "c1", Number: "INV-2026-0001", StoreID: "S1", Status: entity.CountStatusPendingValidation,
		Date: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Lines: []entity.InventoryCountLine{
			{ProductID: "P1", TheoreticalQuantity: decimal.NewFromInt(10), AverageCost: decimal.NewFromInt(5000),
				PhysicalQuantity: dec("8"), Variance: dec("-2"), VarianceValue: dec("-10000")},
			{ProductID: "P2", TheoreticalQuantity: decimal.NewFromInt(4), AverageCost: decimal.NewFromInt(1200),
				PhysicalQuantity: dec("5"), Variance: dec("1"), VarianceValue: dec("1200")},
			{ProductID: "P3", TheoreticalQuantity: decimal.NewFromInt(1), AverageCost: decimal.NewFromInt(300)},
		},
	}
	c.RecalculateTotals()

	out, err := NewMarotoPDFGenerator().GenerateCountReport(context.Background(), c, "Tienda Centro")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateTransferNote(t *testing.T) {
	tr := &entity.Transfer{
		ID: "t1", Number: "TR-2026-0001", SourceStoreID: "S1", DestinationStoreID: "S2",
		Status: entity.TransferStatusInTransit, CreatedAt: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		Lines: []entity.TransferLine{{ProductID: "P1", QuantitySent: decimal.NewFromInt(3), UnitCost: decimal.NewFromInt(2500)}},
	}
	out, err := NewMarotoPDFGenerator().GenerateTransferNote(context.Background(), tr)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "250", formatMoney("250"))
	assert.Equal(t, "25.000", formatMoney("25000"))
	assert.Equal(t, "1.000.000", formatMoney("1000000"))
	assert.Equal(t, "-10.000", formatMoney("-10000"))
	assert.Equal(t, "-500", formatMoney("-500"))
}
