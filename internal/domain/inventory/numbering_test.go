package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-core/internal/domain/inventory"
)

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "BR-2026-0001", inventory.FormatDocumentNumber(inventory.PrefixGoodsReceipt, 2026, 1))
	assert.Equal(t, "TR-2025-0042", inventory.FormatDocumentNumber(inventory.PrefixTransfer, 2025, 42))
	assert.Equal(t, "INV-2026-9999", inventory.FormatDocumentNumber(inventory.PrefixInventoryCount, 2026, 9999))
	assert.Equal(t, "BR-2026-10000", inventory.FormatDocumentNumber(inventory.PrefixGoodsReceipt, 2026, 10000))
}

func TestParseDocumentNumber(t *testing.T) {
	prefix, year, seq, ok := inventory.ParseDocumentNumber("INV-2026-0007")
	assert.True(t, ok)
	assert.Equal(t, "INV", prefix)
	assert.Equal(t, 2026, year)
	assert.EqualValues(t, 7, seq)

	_, _, _, ok = inventory.ParseDocumentNumber("BR-26-0001")
	assert.False(t, ok)
}
