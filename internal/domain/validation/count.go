package validation

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/inventory"
)

// CountEntry cantidad física contada para un producto.
type CountEntry struct {
	ProductID        string
	PhysicalQuantity decimal.Decimal
	Comment          string
}

// ValidateCountEntries valida un lote de conteos contra las líneas del snapshot.
func (e *Engine) ValidateCountEntries(c *entity.InventoryCount, entries []CountEntry) Result {
	var res Result
	if len(entries) == 0 {
		res.input("entries", 0, "no hay conteos para registrar")
		return res
	}
	seen := make(map[string]int, len(entries))
	for i, en := range entries {
		n := i + 1
		if en.ProductID == "" {
			res.input("product_id", n, "producto requerido")
			continue
		}
		if first, dup := seen[en.ProductID]; dup {
			res.rule("product_id", n, "producto %s contado dos veces en el lote (línea %d)", en.ProductID, first)
			continue
		}
		seen[en.ProductID] = n
		if c.LineByProduct(en.ProductID) < 0 {
			res.input("product_id", n, "el producto %s no está en el inventario", en.ProductID)
		}
		if en.PhysicalQuantity.IsNegative() {
			res.input("physical_quantity", n, "la cantidad física no puede ser negativa")
		} else if inventory.ExceedsScale(en.PhysicalQuantity, inventory.QuantityScale) {
			res.input("physical_quantity", n, "la cantidad admite como máximo %d decimales", inventory.QuantityScale)
		}
	}
	return res
}

// ValidateCountSubmission validación estricta antes de enviar el conteo a validación.
func (e *Engine) ValidateCountSubmission(c *entity.InventoryCount) Result {
	var res Result
	if c.StoreID == "" {
		res.input("store_id", 0, "tienda requerida")
	}
	if !c.Date.IsZero() && e.inFuture(c.Date) {
		res.input("date", 0, "la fecha del inventario no puede ser futura")
	}
	if len(c.Lines) == 0 {
		res.rule("lines", 0, "el inventario no tiene líneas")
		return res
	}
	seen := make(map[string]int, len(c.Lines))
	for i, l := range c.Lines {
		n := i + 1
		if first, dup := seen[l.ProductID]; dup {
			res.rule("product_id", n, "producto %s duplicado (ya está en la línea %d)", l.ProductID, first)
		} else {
			seen[l.ProductID] = n
		}
		if !l.Counted() {
			res.input("physical_quantity", n, "falta la cantidad física del producto %s", l.ProductID)
			continue
		}
		if l.PhysicalQuantity.IsNegative() {
			res.input("physical_quantity", n, "la cantidad física no puede ser negativa")
			continue
		}
		variance := l.PhysicalQuantity.Sub(l.TheoreticalQuantity)
		if exceedsRatio(variance, l.TheoreticalQuantity, e.rules.VarianceWarningRatio) {
			res.warn("physical_quantity", n, "diferencia de %s sobre %s teóricos para %s",
				variance.String(), l.TheoreticalQuantity.String(), l.ProductID)
		}
	}
	if len(c.Lines) > e.rules.LargeLineCount*10 {
		res.warn("lines", 0, "inventario con %d líneas", len(c.Lines))
	}
	return res
}
