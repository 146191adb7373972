package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/domain"
)

// Estados de una recepción de mercancía.
const (
	ReceiptStatusDraft     = "draft"
	ReceiptStatusValidated = "validated" // terminal
)

// GoodsReceiptLine línea de recepción. Subtotal = QuantityReceived * UnitCost.
type GoodsReceiptLine struct {
	ProductID        string
	QuantityReceived decimal.Decimal
	UnitCost         decimal.Decimal
	Subtotal         decimal.Decimal
}

// GoodsReceipt documento de recepción de mercancía de un proveedor.
// TotalValue es siempre la suma de subtotales; DeclaredTotal (opcional) es el monto del proveedor.
type GoodsReceipt struct {
	ID            string
	Number        string // BR-YYYY-NNNN, asignado al primer guardado
	SupplierID    string
	StoreID       string
	DateReceived  time.Time
	Lines         []GoodsReceiptLine
	DeclaredTotal *decimal.Decimal
	TotalValue    decimal.Decimal
	Status        string
	Comment       string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ValidatedBy   string
	ValidatedAt   *time.Time
}

// IsTerminal un recibo validado es inmutable.
func (r *GoodsReceipt) IsTerminal() bool {
	return r.Status == ReceiptStatusValidated
}

func (r *GoodsReceipt) ensureDraft(op string) error {
	if r.IsTerminal() {
		return &domain.StateTransitionError{Document: "goods_receipt", ID: r.ID, Status: r.Status, Op: op}
	}
	return nil
}

// AddLine agrega una línea y recalcula su subtotal.
func (r *GoodsReceipt) AddLine(productID string, qty, unitCost decimal.Decimal) error {
	if err := r.ensureDraft("agregar línea"); err != nil {
		return err
	}
	r.Lines = append(r.Lines, GoodsReceiptLine{
		ProductID:        productID,
		QuantityReceived: qty,
		UnitCost:         unitCost,
		Subtotal:         qty.Mul(unitCost),
	})
	r.Recalculate()
	return nil
}

// UpdateLine modifica cantidad y/o costo de la línea index (0-based); nil deja el valor actual.
func (r *GoodsReceipt) UpdateLine(index int, productID *string, qty, unitCost *decimal.Decimal) error {
	if err := r.ensureDraft("modificar línea"); err != nil {
		return err
	}
	if index < 0 || index >= len(r.Lines) {
		return &domain.FieldError{Field: "lines", Line: index + 1, Kind: domain.ErrInvalidInput, Message: "línea inexistente"}
	}
	line := &r.Lines[index]
	if productID != nil {
		line.ProductID = *productID
	}
	if qty != nil {
		line.QuantityReceived = *qty
	}
	if unitCost != nil {
		line.UnitCost = *unitCost
	}
	r.Recalculate()
	return nil
}

// RemoveLine elimina la línea index (0-based).
func (r *GoodsReceipt) RemoveLine(index int) error {
	if err := r.ensureDraft("eliminar línea"); err != nil {
		return err
	}
	if index < 0 || index >= len(r.Lines) {
		return &domain.FieldError{Field: "lines", Line: index + 1, Kind: domain.ErrInvalidInput, Message: "línea inexistente"}
	}
	r.Lines = append(r.Lines[:index], r.Lines[index+1:]...)
	r.Recalculate()
	return nil
}

// Recalculate recalcula subtotales y TotalValue.
func (r *GoodsReceipt) Recalculate() {
	total := decimal.Zero
	for i := range r.Lines {
		r.Lines[i].Subtotal = r.Lines[i].QuantityReceived.Mul(r.Lines[i].UnitCost)
		total = total.Add(r.Lines[i].Subtotal)
	}
	r.TotalValue = total
}

// Clone copia profunda (las líneas no se comparten).
func (r *GoodsReceipt) Clone() *GoodsReceipt {
	c := *r
	c.Lines = append([]GoodsReceiptLine(nil), r.Lines...)
	if r.DeclaredTotal != nil {
		d := *r.DeclaredTotal
		c.DeclaredTotal = &d
	}
	if r.ValidatedAt != nil {
		t := *r.ValidatedAt
		c.ValidatedAt = &t
	}
	return &c
}
