package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-core/internal/domain/inventory"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestCostCalculator_PrimeraEntrada(t *testing.T) {
	got := inventory.CostCalculator(d("0"), d("0"), d("10"), d("5000"))
	assert.True(t, got.Equal(d("5000")), "got %s", got)
}

func TestCostCalculator_Ponderado(t *testing.T) {
	// 10 u a 5000 (50000) + 5 u a 8000 (40000) = 90000 / 15 = 6000
	got := inventory.CostCalculator(d("10"), d("5000"), d("5"), d("8000"))
	assert.True(t, got.Equal(d("6000")), "got %s", got)
}

func TestCostCalculator_SinCantidades(t *testing.T) {
	got := inventory.CostCalculator(d("0"), d("1200"), d("0"), d("900"))
	assert.True(t, got.IsZero())
}

func TestCostCalculator_Acotado(t *testing.T) {
	cases := []struct{ qty, cost, inQty, inCost string }{
		{"10", "5000", "5", "8000"},
		{"3", "100", "7", "1"},
		{"0.5", "12.345", "1000", "12.344"},
		{"999", "0", "1", "1000000"},
		{"1", "7", "1", "7"},
		{"12.75", "3.3333", "0.25", "9.99"},
		{"1", "0.1234567", "1", "0.1234567"},
		{"2", "0.0000004", "1", "0.0000004"},
		{"3", "1.0000001", "1", "1.0000002"},
	}
	for _, c := range cases {
		got := inventory.CostCalculator(d(c.qty), d(c.cost), d(c.inQty), d(c.inCost))
		lo := decimal.Min(d(c.cost), d(c.inCost))
		hi := decimal.Max(d(c.cost), d(c.inCost))
		assert.True(t, got.GreaterThanOrEqual(lo) && got.LessThanOrEqual(hi),
			"%v: %s fuera de [%s, %s]", c, got, lo, hi)
	}
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, inventory.WithinTolerance(d("65000.005"), d("65000"), inventory.AmountTolerance))
	assert.False(t, inventory.WithinTolerance(d("70000"), d("65000"), inventory.AmountTolerance))
}

func TestExceedsScale(t *testing.T) {
	assert.False(t, inventory.ExceedsScale(d("1.2345"), inventory.QuantityScale))
	assert.False(t, inventory.ExceedsScale(d("1.234500"), inventory.QuantityScale))
	assert.False(t, inventory.ExceedsScale(d("-7"), inventory.QuantityScale))
	assert.True(t, inventory.ExceedsScale(d("1.23451"), inventory.QuantityScale))
	assert.False(t, inventory.ExceedsScale(d("0.123456"), inventory.CostScale))
	assert.True(t, inventory.ExceedsScale(d("0.1234567"), inventory.CostScale))
}
