package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa el costo unitario medio ponderado (CUMP), servicio de dominio puro.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Si la suma de cantidades es cero (o negativa) devuelve 0 para evitar la división por cero.
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	avg := num.DivRound(sum, CostScale)
	// El redondeo no puede sacar el promedio del rango de los costos que mezcla.
	if !stockActual.IsNegative() && !cantEntrada.IsNegative() {
		lo, hi := decimal.Min(costoActual, costoEntrada), decimal.Max(costoActual, costoEntrada)
		if avg.LessThan(lo) {
			return lo
		}
		if avg.GreaterThan(hi) {
			return hi
		}
	}
	return avg
}

// Tolerancias del dominio.
var (
	// AmountTolerance diferencia máxima aceptada entre total declarado y suma de subtotales.
	AmountTolerance = decimal.New(1, -2)
	// VarianceEpsilon por debajo de este valor absoluto una diferencia se considera cero.
	VarianceEpsilon = decimal.New(1, -2)
)

// WithinTolerance |a-b| <= tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}
