package validation

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/inventory"
)

// ValidateReceipt valida una recepción de mercancía según el nivel.
// currentCosts (opcional) mapea productID -> CUMP actual en la tienda, para avisar desviaciones de costo.
func (e *Engine) ValidateReceipt(r *entity.GoodsReceipt, level Level, currentCosts map[string]decimal.Decimal) Result {
	var res Result
	if level == AutoSave {
		return res
	}

	if r.SupplierID == "" {
		res.input("supplier_id", 0, "proveedor requerido")
	}
	if r.StoreID == "" {
		res.input("store_id", 0, "tienda requerida")
	}
	if r.DateReceived.IsZero() {
		if level == Strict {
			res.input("date_received", 0, "fecha de recepción requerida")
		}
	} else if e.inFuture(r.DateReceived) {
		if level == Strict {
			res.input("date_received", 0, "la fecha de recepción no puede ser futura")
		} else {
			res.warn("date_received", 0, "la fecha de recepción es futura")
		}
	}

	if len(r.Lines) == 0 {
		if level == Strict {
			res.rule("lines", 0, "el documento no tiene líneas")
		}
		return res
	}

	seen := make(map[string]int, len(r.Lines))
	sum := decimal.Zero
	for i, l := range r.Lines {
		n := i + 1
		if level == Draft && lineIsBlank(l) {
			continue
		}
		if l.ProductID == "" {
			res.input("product_id", n, "producto requerido")
		} else if first, dup := seen[l.ProductID]; dup {
			if level == Strict {
				res.rule("product_id", n, "producto %s duplicado (ya está en la línea %d)", l.ProductID, first)
			} else {
				res.warn("product_id", n, "producto %s duplicado (ya está en la línea %d)", l.ProductID, first)
			}
		} else {
			seen[l.ProductID] = n
		}
		if !l.QuantityReceived.IsPositive() {
			res.input("quantity_received", n, "la cantidad debe ser mayor que cero")
		} else if inventory.ExceedsScale(l.QuantityReceived, inventory.QuantityScale) {
			res.input("quantity_received", n, "la cantidad admite como máximo %d decimales", inventory.QuantityScale)
		}
		if !l.UnitCost.IsPositive() {
			res.input("unit_cost", n, "el costo unitario debe ser mayor que cero")
		} else if inventory.ExceedsScale(l.UnitCost, inventory.CostScale) {
			res.input("unit_cost", n, "el costo unitario admite como máximo %d decimales", inventory.CostScale)
		}
		expected := l.QuantityReceived.Mul(l.UnitCost)
		if !inventory.WithinTolerance(l.Subtotal, expected, inventory.AmountTolerance) {
			res.rule("subtotal", n, "subtotal %s no coincide con cantidad x costo (%s)", l.Subtotal.StringFixed(2), expected.StringFixed(2))
		}
		sum = sum.Add(l.Subtotal)

		if cur, ok := currentCosts[l.ProductID]; ok && cur.IsPositive() && l.UnitCost.IsPositive() {
			if exceedsRatio(l.UnitCost.Sub(cur), cur, e.rules.CostDeviationRatio) {
				res.warn("unit_cost", n, "costo %s se desvía más de %s%% del costo promedio actual %s",
					l.UnitCost.StringFixed(2), e.rules.CostDeviationRatio.Mul(decimal.NewFromInt(100)).String(), cur.StringFixed(2))
			}
		}
	}

	if r.DeclaredTotal != nil && !inventory.WithinTolerance(*r.DeclaredTotal, sum, inventory.AmountTolerance) {
		if level == Strict {
			res.rule("total_value", 0, "total declarado %s no coincide con la suma de líneas %s",
				r.DeclaredTotal.StringFixed(2), sum.StringFixed(2))
		} else {
			res.warn("total_value", 0, "total declarado %s no coincide con la suma de líneas %s",
				r.DeclaredTotal.StringFixed(2), sum.StringFixed(2))
		}
	}
	if len(r.Lines) > e.rules.LargeLineCount {
		res.warn("lines", 0, "documento con %d líneas, inusualmente grande", len(r.Lines))
	}
	return res
}

// lineIsBlank línea agregada pero sin ningún dato cargado.
func lineIsBlank(l entity.GoodsReceiptLine) bool {
	return l.ProductID == "" && l.QuantityReceived.IsZero() && l.UnitCost.IsZero()
}
