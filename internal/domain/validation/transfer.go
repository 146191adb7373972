package validation

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	"github.com/jhoicas/stock-core/internal/domain/inventory"
)

// AvailableFunc devuelve la cantidad disponible de un producto en la tienda de origen.
type AvailableFunc func(productID string) (decimal.Decimal, error)

// ReceivedQuantity cantidad recibida declarada para un producto.
type ReceivedQuantity struct {
	ProductID        string
	QuantityReceived decimal.Decimal
}

// ValidateTransferCreate valida un traslado antes de despacharlo. available puede ser nil
// (en ese caso no se verifica stock); un error de lectura de stock se devuelve aparte.
func (e *Engine) ValidateTransferCreate(t *entity.Transfer, available AvailableFunc) (Result, error) {
	var res Result
	if t.SourceStoreID == "" {
		res.input("source_store_id", 0, "tienda de origen requerida")
	}
	if t.DestinationStoreID == "" {
		res.input("destination_store_id", 0, "tienda de destino requerida")
	}
	if t.SourceStoreID != "" && t.SourceStoreID == t.DestinationStoreID {
		res.rule("destination_store_id", 0, "origen y destino no pueden ser la misma tienda")
	}
	if len(t.Lines) == 0 {
		res.rule("lines", 0, "el traslado no tiene líneas")
		return res, nil
	}

	seen := make(map[string]int, len(t.Lines))
	for i, l := range t.Lines {
		n := i + 1
		if l.ProductID == "" {
			res.input("product_id", n, "producto requerido")
			continue
		}
		if first, dup := seen[l.ProductID]; dup {
			res.rule("product_id", n, "producto %s duplicado (ya está en la línea %d)", l.ProductID, first)
			continue
		}
		seen[l.ProductID] = n
		if !l.QuantitySent.IsPositive() {
			res.input("quantity_sent", n, "la cantidad enviada debe ser mayor que cero")
			continue
		}
		if inventory.ExceedsScale(l.QuantitySent, inventory.QuantityScale) {
			res.input("quantity_sent", n, "la cantidad admite como máximo %d decimales", inventory.QuantityScale)
			continue
		}
		if available == nil || t.SourceStoreID == "" {
			continue
		}
		avail, err := available(l.ProductID)
		if err != nil {
			return res, err
		}
		if avail.LessThan(l.QuantitySent) {
			res.shortage("quantity_sent", n, "stock insuficiente para %s: disponible %s, solicitado %s, faltan %s",
				l.ProductID, avail.String(), l.QuantitySent.String(), l.QuantitySent.Sub(avail).String())
		}
	}
	if len(t.Lines) > e.rules.LargeLineCount {
		res.warn("lines", 0, "traslado con %d líneas, inusualmente grande", len(t.Lines))
	}
	return res, nil
}

// ValidateTransferReception valida las cantidades recibidas contra las líneas originales.
// Todas las líneas enviadas deben tener su contraparte; una diferencia mayor al umbral genera aviso.
func (e *Engine) ValidateTransferReception(t *entity.Transfer, received []ReceivedQuantity) Result {
	var res Result
	byProduct := make(map[string]decimal.Decimal, len(received))
	for i, r := range received {
		n := i + 1
		if r.ProductID == "" {
			res.input("product_id", n, "producto requerido")
			continue
		}
		if _, dup := byProduct[r.ProductID]; dup {
			res.rule("product_id", n, "producto %s recibido dos veces", r.ProductID)
			continue
		}
		if r.QuantityReceived.IsNegative() {
			res.input("quantity_received", n, "la cantidad recibida no puede ser negativa")
		} else if inventory.ExceedsScale(r.QuantityReceived, inventory.QuantityScale) {
			res.input("quantity_received", n, "la cantidad admite como máximo %d decimales", inventory.QuantityScale)
		}
		byProduct[r.ProductID] = r.QuantityReceived
	}

	sent := make(map[string]bool, len(t.Lines))
	for i, l := range t.Lines {
		n := i + 1
		sent[l.ProductID] = true
		qty, ok := byProduct[l.ProductID]
		if !ok {
			res.input("lines", n, "falta la cantidad recibida del producto %s", l.ProductID)
			continue
		}
		variance := qty.Sub(l.QuantitySent)
		if exceedsRatio(variance, l.QuantitySent, e.rules.VarianceWarningRatio) {
			res.warn("quantity_received", n, "diferencia de %s sobre %s enviados para %s",
				variance.String(), l.QuantitySent.String(), l.ProductID)
		}
	}
	for i, r := range received {
		if r.ProductID != "" && !sent[r.ProductID] {
			res.input("product_id", i+1, "el producto %s no pertenece al traslado", r.ProductID)
		}
	}
	return res
}
