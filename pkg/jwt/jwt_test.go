package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse(t *testing.T) {
	token, err := Generate("secreto", "u-1", "Ana", "bodeguero", "stock-core", 5)
	require.NoError(t, err)

	claims, err := Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, "bodeguero", claims.Role)
	assert.Equal(t, "stock-core", claims.Issuer)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := Generate("secreto", "u-1", "", "admin", "stock-core", 5)
	require.NoError(t, err)
	_, err = Parse("otro", token)
	require.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	token, err := Generate("secreto", "u-1", "", "admin", "stock-core", -1)
	require.NoError(t, err)
	_, err = Parse("secreto", token)
	require.Error(t, err)
}

func TestSecretVacio(t *testing.T) {
	_, err := Generate("", "u-1", "", "admin", "x", 5)
	require.Error(t, err)
	_, err = Parse("", "abc")
	require.Error(t, err)
}
