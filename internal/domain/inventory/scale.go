package inventory

import "github.com/shopspring/decimal"

// Decimales admitidos en la entrada; coinciden con las columnas NUMERIC de PostgreSQL.
const (
	QuantityScale int32 = 4
	CostScale     int32 = 6
)

// ExceedsScale true si d tiene más de scale decimales significativos (los ceros a la derecha no cuentan).
func ExceedsScale(d decimal.Decimal, scale int32) bool {
	return !d.Equal(d.Truncate(scale))
}
