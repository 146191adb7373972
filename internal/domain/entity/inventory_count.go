package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un inventario físico.
const (
	CountStatusInProgress        = "in_progress"
	CountStatusPendingValidation = "pending_validation"
	CountStatusValidated         = "validated" // terminal
)

// InventoryCountLine línea del conteo. TheoreticalQuantity y AverageCost se fijan al crear el conteo.
type InventoryCountLine struct {
	ProductID           string
	TheoreticalQuantity decimal.Decimal
	AverageCost         decimal.Decimal
	PhysicalQuantity    *decimal.Decimal
	Variance            *decimal.Decimal // Physical - Theoretical
	VarianceValue       *decimal.Decimal // Variance * AverageCost
	Comment             string
}

// Counted true si la línea ya tiene cantidad física.
func (l *InventoryCountLine) Counted() bool {
	return l.PhysicalQuantity != nil
}

// InventoryCount inventario físico de una tienda comparado contra el stock teórico.
type InventoryCount struct {
	ID                 string
	Number             string // INV-YYYY-NNNN
	StoreID            string
	Date               time.Time
	Lines              []InventoryCountLine
	Status             string
	TotalVariance      decimal.Decimal
	TotalVarianceValue decimal.Decimal
	Comments           []string // traza de comentarios (creación, rechazos)
	CreatedBy          string
	CreatedAt          time.Time
	SubmittedAt        *time.Time
	ValidatedBy        string
	ValidatedAt        *time.Time
}

// IsTerminal solo validated es terminal.
func (c *InventoryCount) IsTerminal() bool {
	return c.Status == CountStatusValidated
}

// LineByProduct devuelve el índice de la línea del producto o -1.
func (c *InventoryCount) LineByProduct(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// RecalculateTotals recalcula TotalVariance y TotalVarianceValue a partir de las líneas contadas.
func (c *InventoryCount) RecalculateTotals() {
	totalVar, totalVal := decimal.Zero, decimal.Zero
	for _, l := range c.Lines {
		if l.Variance != nil {
			totalVar = totalVar.Add(*l.Variance)
		}
		if l.VarianceValue != nil {
			totalVal = totalVal.Add(*l.VarianceValue)
		}
	}
	c.TotalVariance = totalVar
	c.TotalVarianceValue = totalVal
}

// Clone copia profunda.
func (c *InventoryCount) Clone() *InventoryCount {
	cp := *c
	cp.Lines = make([]InventoryCountLine, len(c.Lines))
	for i, l := range c.Lines {
		cp.Lines[i] = l
		if l.PhysicalQuantity != nil {
			v := *l.PhysicalQuantity
			cp.Lines[i].PhysicalQuantity = &v
		}
		if l.Variance != nil {
			v := *l.Variance
			cp.Lines[i].Variance = &v
		}
		if l.VarianceValue != nil {
			v := *l.VarianceValue
			cp.Lines[i].VarianceValue = &v
		}
	}
	cp.Comments = append([]string(nil), c.Comments...)
	if c.SubmittedAt != nil {
		t := *c.SubmittedAt
		cp.SubmittedAt = &t
	}
	if c.ValidatedAt != nil {
		t := *c.ValidatedAt
		cp.ValidatedAt = &t
	}
	return &cp
}
