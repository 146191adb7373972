package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento en el libro de trazabilidad.
type MovementType string

const (
	MovementArrival     MovementType = "arrival"      // recepción de proveedor
	MovementTransferOut MovementType = "transfer_out" // salida por traslado
	MovementTransferIn  MovementType = "transfer_in"  // entrada por traslado (o anulación)
	MovementSale        MovementType = "sale"
	MovementLoss        MovementType = "loss"
	MovementAdjustment  MovementType = "adjustment" // ajuste por inventario físico
)

// MovementTypes lista en orden estable, útil para reportes.
var MovementTypes = []MovementType{
	MovementArrival, MovementTransferOut, MovementTransferIn, MovementSale, MovementLoss, MovementAdjustment,
}

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	for _, mt := range MovementTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// Tipos de documento que originan movimientos.
const (
	ReferenceGoodsReceipt        = "goods_receipt"
	ReferenceTransfer            = "transfer"
	ReferenceTransferCancelation = "transfer_cancellation"
	ReferenceInventoryCount      = "inventory_count"
	ReferenceOpeningBalance      = "opening_balance"
)

// MovementRecord hecho inmutable del libro: se crea una vez por mutación confirmada y nunca se edita.
type MovementRecord struct {
	ID            string
	Date          time.Time
	Type          MovementType
	StoreID       string
	ProductID     string
	QuantityDelta decimal.Decimal // positivo entrada, negativo salida
	UnitCost      decimal.Decimal
	Value         decimal.Decimal // QuantityDelta * UnitCost
	ReferenceID   string
	ReferenceType string
	CreatedBy     string
	CreatedAt     time.Time
	Comment       string
}

// IsInflow true si el movimiento incrementa el stock.
func (m *MovementRecord) IsInflow() bool {
	return m.QuantityDelta.IsPositive()
}
