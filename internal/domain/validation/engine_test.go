package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
)

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(DefaultRules(), func() time.Time { return fixedNow })
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func hasKind(res Result, kind error) bool {
	for _, e := range res.Errors {
		if errors.Is(e, kind) {
			return true
		}
	}
	return false
}

func validReceipt() *entity.GoodsReceipt {
	r := &entity.GoodsReceipt{
		ID:           "r1",
		SupplierID:   "sup-1",
		StoreID:      "store-1",
		DateReceived: fixedNow,
		Status:       entity.ReceiptStatusDraft,
	}
	_ = r.AddLine("p1", d("10"), d("5000"))
	_ = r.AddLine("p2", d("5"), d("3000"))
	return r
}

// ─── Recepciones ───────────────────────────────────────────────────────────────

func TestValidateReceipt_StrictOK(t *testing.T) {
	res := newTestEngine().ValidateReceipt(validReceipt(), Strict, nil)
	assert.True(t, res.IsValid())
	assert.NoError(t, res.Err())
}

func TestValidateReceipt_StrictEmptyLines(t *testing.T) {
	r := validReceipt()
	r.Lines = nil
	res := newTestEngine().ValidateReceipt(r, Strict, nil)
	require.False(t, res.IsValid())
	assert.True(t, hasKind(res, domain.ErrBusinessRule))

	// En borrador la lista vacía se acepta
	res = newTestEngine().ValidateReceipt(r, Draft, nil)
	assert.True(t, res.IsValid())
}

func TestValidateReceipt_DeclaredTotalMismatch(t *testing.T) {
	r := &entity.GoodsReceipt{SupplierID: "s", StoreID: "st", DateReceived: fixedNow}
	_ = r.AddLine("p1", d("13"), d("5000")) // 65000
	declared := d("70000")
	r.DeclaredTotal = &declared

	res := newTestEngine().ValidateReceipt(r, Strict, nil)
	require.False(t, res.IsValid())
	err := res.Err()
	assert.ErrorIs(t, err, domain.ErrBusinessRule)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "total_value", verr.Issues[0].Field)

	// En borrador solo es un aviso
	res = newTestEngine().ValidateReceipt(r, Draft, nil)
	assert.True(t, res.IsValid())
	assert.NotEmpty(t, res.Warnings)
}

func TestValidateReceipt_DeclaredTotalWithinTolerance(t *testing.T) {
	r := validReceipt() // 65000
	declared := d("65000.009")
	r.DeclaredTotal = &declared
	res := newTestEngine().ValidateReceipt(r, Strict, nil)
	assert.True(t, res.IsValid())
}

func TestValidateReceipt_LineRules(t *testing.T) {
	r := validReceipt()
	r.Lines = append(r.Lines,
		entity.GoodsReceiptLine{ProductID: "p1", QuantityReceived: d("1"), UnitCost: d("1"), Subtotal: d("1")},
		entity.GoodsReceiptLine{ProductID: "p3", QuantityReceived: d("0"), UnitCost: d("-1"), Subtotal: d("0")},
	)
	res := newTestEngine().ValidateReceipt(r, Strict, nil)
	require.False(t, res.IsValid())

	fields := map[string]int{}
	for _, e := range res.Errors {
		fields[e.Field] = e.Line
	}
	assert.Equal(t, 3, fields["product_id"], "duplicado en la línea 3")
	assert.Equal(t, 4, fields["quantity_received"])
	assert.Equal(t, 4, fields["unit_cost"])
}

func TestValidateReceipt_SubtotalMismatch(t *testing.T) {
	r := validReceipt()
	r.Lines[0].Subtotal = d("49999")
	res := newTestEngine().ValidateReceipt(r, Strict, nil)
	require.False(t, res.IsValid())
	assert.Equal(t, "subtotal", res.Errors[0].Field)
	assert.Equal(t, 1, res.Errors[0].Line)
}

func TestValidateReceipt_DraftRequiresIdentity(t *testing.T) {
	r := &entity.GoodsReceipt{}
	res := newTestEngine().ValidateReceipt(r, Draft, nil)
	require.Len(t, res.Errors, 2)
	assert.True(t, hasKind(res, domain.ErrInvalidInput))
}

func TestValidateReceipt_DraftSkipsBlankLines(t *testing.T) {
	r := &entity.GoodsReceipt{SupplierID: "s", StoreID: "st"}
	r.Lines = []entity.GoodsReceiptLine{{}}
	res := newTestEngine().ValidateReceipt(r, Draft, nil)
	assert.True(t, res.IsValid())

	// Una línea cargada parcialmente sí se valida
	r.Lines[0].ProductID = "p1"
	res = newTestEngine().ValidateReceipt(r, Draft, nil)
	assert.False(t, res.IsValid())
}

func TestValidateReceipt_AutoSaveAlwaysValid(t *testing.T) {
	res := newTestEngine().ValidateReceipt(&entity.GoodsReceipt{}, AutoSave, nil)
	assert.True(t, res.IsValid())
	assert.Empty(t, res.Warnings)
}

func TestValidateReceipt_FutureDate(t *testing.T) {
	r := validReceipt()
	r.DateReceived = fixedNow.AddDate(0, 0, 2)
	res := newTestEngine().ValidateReceipt(r, Strict, nil)
	require.False(t, res.IsValid())
	assert.Equal(t, "date_received", res.Errors[0].Field)

	// Hoy más tarde sigue siendo válido
	r.DateReceived = fixedNow.Add(5 * time.Hour)
	res = newTestEngine().ValidateReceipt(r, Strict, nil)
	assert.True(t, res.IsValid())
}

func TestValidateReceipt_Warnings(t *testing.T) {
	e := NewEngine(Rules{LargeLineCount: 1, CostDeviationRatio: d("0.5")}, func() time.Time { return fixedNow })
	res := e.ValidateReceipt(validReceipt(), Strict, map[string]decimal.Decimal{"p1": d("1000")})
	assert.True(t, res.IsValid())
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "unit_cost", res.Warnings[0].Field)
	assert.Equal(t, "lines", res.Warnings[1].Field)
}

// ─── Traslados ─────────────────────────────────────────────────────────────────

func stockOf(levels map[string]string) AvailableFunc {
	return func(productID string) (decimal.Decimal, error) {
		if v, ok := levels[productID]; ok {
			return d(v), nil
		}
		return decimal.Zero, nil
	}
}

func TestValidateTransferCreate(t *testing.T) {
	e := newTestEngine()
	tr := &entity.Transfer{
		SourceStoreID:      "a",
		DestinationStoreID: "b",
		Lines:              []entity.TransferLine{{ProductID: "p1", QuantitySent: d("10")}},
	}

	res, err := e.ValidateTransferCreate(tr, stockOf(map[string]string{"p1": "10"}))
	require.NoError(t, err)
	assert.True(t, res.IsValid())

	res, err = e.ValidateTransferCreate(tr, stockOf(map[string]string{"p1": "7"}))
	require.NoError(t, err)
	require.False(t, res.IsValid())
	assert.True(t, hasKind(res, domain.ErrInsufficientStock))
	assert.Contains(t, res.Errors[0].Message, "faltan 3")
}

func TestValidateTransferCreate_StructuralRules(t *testing.T) {
	e := newTestEngine()
	tr := &entity.Transfer{SourceStoreID: "a", DestinationStoreID: "a"}
	res, err := e.ValidateTransferCreate(tr, nil)
	require.NoError(t, err)
	assert.Len(t, res.Errors, 2) // misma tienda + sin líneas

	tr = &entity.Transfer{
		SourceStoreID:      "a",
		DestinationStoreID: "b",
		Lines: []entity.TransferLine{
			{ProductID: "p1", QuantitySent: d("1")},
			{ProductID: "p1", QuantitySent: d("2")},
			{ProductID: "p2", QuantitySent: d("0")},
		},
	}
	res, err = e.ValidateTransferCreate(tr, nil)
	require.NoError(t, err)
	require.Len(t, res.Errors, 2)
	assert.ErrorIs(t, res.Errors[0], domain.ErrBusinessRule)
	assert.ErrorIs(t, res.Errors[1], domain.ErrInvalidInput)
}

func TestValidateTransferCreate_ReaderError(t *testing.T) {
	boom := errors.New("db down")
	tr := &entity.Transfer{SourceStoreID: "a", DestinationStoreID: "b",
		Lines: []entity.TransferLine{{ProductID: "p1", QuantitySent: d("1")}}}
	_, err := newTestEngine().ValidateTransferCreate(tr, func(string) (decimal.Decimal, error) {
		return decimal.Zero, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestValidateTransferReception(t *testing.T) {
	e := newTestEngine()
	tr := &entity.Transfer{Lines: []entity.TransferLine{
		{ProductID: "p1", QuantitySent: d("10")},
		{ProductID: "p2", QuantitySent: d("4")},
	}}

	res := e.ValidateTransferReception(tr, []ReceivedQuantity{
		{ProductID: "p1", QuantityReceived: d("8")},
		{ProductID: "p2", QuantityReceived: d("4")},
	})
	assert.True(t, res.IsValid())
	require.Len(t, res.Warnings, 1, "2 de 10 supera el 10%")
	assert.Equal(t, 1, res.Warnings[0].Line)

	// Línea faltante, producto ajeno y cantidad negativa
	res = e.ValidateTransferReception(tr, []ReceivedQuantity{
		{ProductID: "p1", QuantityReceived: d("-1")},
		{ProductID: "p9", QuantityReceived: d("1")},
	})
	assert.Len(t, res.Errors, 3)
	assert.True(t, hasKind(res, domain.ErrInvalidInput))
}

// ─── Inventarios ───────────────────────────────────────────────────────────────

func newCount() *entity.InventoryCount {
	return &entity.InventoryCount{
		StoreID: "st",
		Date:    fixedNow,
		Lines: []entity.InventoryCountLine{
			{ProductID: "p1", TheoreticalQuantity: d("100"), AverageCost: d("10")},
			{ProductID: "p2", TheoreticalQuantity: d("20"), AverageCost: d("5")},
		},
	}
}

func TestValidateCountEntries(t *testing.T) {
	c := newCount()
	res := newTestEngine().ValidateCountEntries(c, []CountEntry{
		{ProductID: "p1", PhysicalQuantity: d("98")},
		{ProductID: "p1", PhysicalQuantity: d("97")},
		{ProductID: "zz", PhysicalQuantity: d("1")},
		{ProductID: "p2", PhysicalQuantity: d("-1")},
	})
	require.Len(t, res.Errors, 3)
	assert.ErrorIs(t, res.Errors[0], domain.ErrBusinessRule)
	assert.Equal(t, 3, res.Errors[1].Line)
	assert.Equal(t, "physical_quantity", res.Errors[2].Field)
}

func TestValidateCountSubmission(t *testing.T) {
	e := newTestEngine()
	c := newCount()

	res := e.ValidateCountSubmission(c)
	assert.Len(t, res.Errors, 2, "ninguna línea contada")

	p1, p2 := d("98"), d("10")
	c.Lines[0].PhysicalQuantity = &p1
	c.Lines[1].PhysicalQuantity = &p2
	res = e.ValidateCountSubmission(c)
	assert.True(t, res.IsValid())
	require.Len(t, res.Warnings, 1, "p2 difiere un 50%")
	assert.Equal(t, 2, res.Warnings[0].Line)
}

// ─── Escala decimal ────────────────────────────────────────────────────────────

func TestEscalaDecimal_Recepcion(t *testing.T) {
	r := validReceipt()
	require.NoError(t, r.AddLine("p3", d("2.500000"), d("10.1200000"))) // ceros a la derecha no cuentan
	res := newTestEngine().ValidateReceipt(r, Strict, nil)
	assert.True(t, res.IsValid())

	require.NoError(t, r.AddLine("p4", d("1.00001"), d("0.1234567")))
	res = newTestEngine().ValidateReceipt(r, Draft, nil)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "quantity_received", res.Errors[0].Field)
	assert.Equal(t, 4, res.Errors[0].Line)
	assert.Equal(t, "unit_cost", res.Errors[1].Field)
	assert.ErrorIs(t, res.Errors[1], domain.ErrInvalidInput)
}

func TestEscalaDecimal_TrasladosEInventarios(t *testing.T) {
	e := newTestEngine()
	tr := &entity.Transfer{
		SourceStoreID:      "a",
		DestinationStoreID: "b",
		Lines:              []entity.TransferLine{{ProductID: "p1", QuantitySent: d("0.00005")}},
	}
	res, err := e.ValidateTransferCreate(tr, stockOf(map[string]string{"p1": "10"}))
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "quantity_sent", res.Errors[0].Field)

	tr.Lines[0].QuantitySent = d("1.2345")
	res = e.ValidateTransferReception(tr, []ReceivedQuantity{{ProductID: "p1", QuantityReceived: d("1.23456")}})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "quantity_received", res.Errors[0].Field)

	res = e.ValidateCountEntries(newCount(), []CountEntry{{ProductID: "p1", PhysicalQuantity: d("99.99999")}})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "physical_quantity", res.Errors[0].Field)
}
