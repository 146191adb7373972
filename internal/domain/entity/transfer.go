package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un traslado.
const (
	TransferStatusInTransit             = "in_transit"
	TransferStatusCompleted             = "completed"
	TransferStatusCompletedWithVariance = "completed_with_variance"
	TransferStatusCancelled             = "cancelled"
)

// TransferLine línea de traslado. UnitCost es el costo promedio de origen al momento del despacho.
type TransferLine struct {
	ProductID        string
	QuantitySent     decimal.Decimal
	UnitCost         decimal.Decimal
	QuantityReceived *decimal.Decimal
	Variance         *decimal.Decimal // QuantityReceived - QuantitySent, solo tras la recepción
}

// Transfer traslado de mercancía entre dos tiendas.
type Transfer struct {
	ID                 string
	Number             string // TR-YYYY-NNNN
	SourceStoreID      string
	DestinationStoreID string
	Lines              []TransferLine
	Status             string
	Comment            string
	ReceptionComment   string
	CancelReason       string
	CreatedBy          string
	CreatedAt          time.Time
	ReceivedBy         string
	ReceivedAt         *time.Time
	CancelledBy        string
	CancelledAt        *time.Time
}

// IsTerminal completed, completed_with_variance y cancelled son terminales.
func (t *Transfer) IsTerminal() bool {
	return t.Status != TransferStatusInTransit
}

// TotalSent suma de cantidades enviadas.
func (t *Transfer) TotalSent() decimal.Decimal {
	total := decimal.Zero
	for _, l := range t.Lines {
		total = total.Add(l.QuantitySent)
	}
	return total
}

// TotalValue valor despachado (cantidad * costo de origen).
func (t *Transfer) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, l := range t.Lines {
		total = total.Add(l.QuantitySent.Mul(l.UnitCost))
	}
	return total
}

// Clone copia profunda.
func (t *Transfer) Clone() *Transfer {
	c := *t
	c.Lines = make([]TransferLine, len(t.Lines))
	for i, l := range t.Lines {
		c.Lines[i] = l
		if l.QuantityReceived != nil {
			q := *l.QuantityReceived
			c.Lines[i].QuantityReceived = &q
		}
		if l.Variance != nil {
			v := *l.Variance
			c.Lines[i].Variance = &v
		}
	}
	if t.ReceivedAt != nil {
		r := *t.ReceivedAt
		c.ReceivedAt = &r
	}
	if t.CancelledAt != nil {
		x := *t.CancelledAt
		c.CancelledAt = &x
	}
	return &c
}
