package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-core/internal/domain"
)

func TestDocumentQuery_FiltroPorNumero(t *testing.T) {
	f, err := DocumentQuery{Number: " br-2026-0007 "}.Filter()
	require.NoError(t, err)
	assert.Equal(t, "BR-2026-0007", f.Number)
	assert.Equal(t, 20, f.Limit)

	for _, bad := range []string{"BR-26-0001", "XX-2026-0001", "TR-2026-12", "INV-2026"} {
		_, err := DocumentQuery{Number: bad}.Filter()
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}

func TestDocumentQuery_RangoInvertido(t *testing.T) {
	_, err := DocumentQuery{From: "2026-05-10", To: "2026-05-01"}.Filter()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f, err := DocumentQuery{From: "2026-05-01", To: "2026-05-01"}.Filter()
	require.NoError(t, err)
	assert.True(t, f.To.After(*f.From))
}
