// Package pdf genera los documentos imprimibles del inventario con Maroto v2.
//
// Layout del reporte de inventario físico (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tienda               │  N° Inventario + Fecha + QR  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: líneas, contadas, exactitud, valor teórico         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Teórico | Físico | Dif. | Costo | Valor   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: sobrantes / faltantes / diferencia neta            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-core/internal/application/count"
	"github.com/jhoicas/stock-core/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 20, Blue: 20}
	colorGreen   = &props.Color{Red: 20, Green: 120, Blue: 40}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator genera reportes de inventario y remisiones de traslado.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

func newDocument(title, author string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(author, true).
		Build()
	return maroto.New(cfg)
}

// GenerateCountReport genera el reporte de diferencias de un inventario físico.
func (g *MarotoPDFGenerator) GenerateCountReport(_ context.Context, c *entity.InventoryCount, storeName string) ([]byte, error) {
	a := count.Analyze(c)
	m := newDocument("Inventario físico "+c.Number, nonEmpty(storeName, c.StoreID))

	m.AddRows(countHeaderRow(c, storeName))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(a))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow([]column{
		{"Producto", 4, align.Left}, {"Teórico", 1, align.Right}, {"Físico", 1, align.Right},
		{"Dif.", 1, align.Right}, {"Costo prom.", 2, align.Right}, {"Valor dif.", 3, align.Right},
	}))
	m.AddRows(countDetailRows(c.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(countTotalsRow(a))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// GenerateTransferNote genera la remisión que acompaña la mercancía en tránsito.
func (g *MarotoPDFGenerator) GenerateTransferNote(_ context.Context, t *entity.Transfer) ([]byte, error) {
	m := newDocument("Traslado "+t.Number, t.SourceStoreID)

	m.AddRows(row.New(18).Add(
		col.New(7).Add(
			text.New("REMISIÓN DE TRASLADO", props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("Origen: %s   →   Destino: %s", t.SourceStoreID, t.DestinationStoreID),
				props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(t.Number, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1}),
			text.New("Fecha: "+t.CreatedAt.Format("02/01/2006 15:04"), props.Text{Size: 8, Align: align.Right, Top: 8, Color: colorGray}),
			text.New("Estado: "+t.Status, props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
		),
	))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow([]column{
		{"Producto", 5, align.Left}, {"Enviado", 2, align.Right}, {"Recibido", 2, align.Right}, {"Dif.", 3, align.Right},
	}))
	for _, l := range t.Lines {
		m.AddRows(row.New(7).Add(
			col.New(5).Add(text.New(l.ProductID, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatQty(l.QuantitySent), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(optionalQty(l.QuantityReceived), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(optionalQty(l.Variance), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(row.New(8).Add(
		col.New(7).Add(text.New(nonEmpty(t.Comment, ""), props.Text{Size: 8, Top: 2, Color: colorGray})),
		col.New(5).Add(text.New("Valor despachado: $"+formatMoney(t.TotalValue().StringFixed(0)),
			props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2, Color: colorPrimary})),
	))
	m.AddRows(row.New(25), signatureRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// countHeaderRow: tienda (izq), número, fecha y QR con el número del inventario (der).
func countHeaderRow(c *entity.InventoryCount, storeName string) core.Row {
	return row.New(24).Add(
		col.New(7).Add(
			text.New(nonEmpty(storeName, c.StoreID), props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Estado: "+c.Status, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(3).Add(
			text.New("INVENTARIO FÍSICO", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(c.Number, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
			text.New("Fecha: "+c.Date.Format("02/01/2006"), props.Text{Size: 8, Align: align.Right, Top: 14, Color: colorGray}),
		),
		col.New(2).Add(code.NewQr(c.Number, props.Rect{Percent: 90, Center: true})),
	)
}

func summaryRow(a *count.VarianceAnalysis) core.Row {
	accuracy := a.AccuracyRate.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
	return row.New(12).Add(
		col.New(12).Add(
			text.New("RESUMEN", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("Líneas: %d   |   Contadas: %d   |   Con diferencia: %d   |   Exactitud: %s   |   Valor teórico: $%s",
				a.Lines, a.CountedLines, a.LinesWithVariance, accuracy, formatMoney(a.TheoreticalValue.StringFixed(0)),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

type column struct {
	label string
	size  int
	align align.Type
}

func tableHeaderRow(cols []column) core.Row {
	r := row.New(8)
	for _, c := range cols {
		r.Add(col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: c.align,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		})))
	}
	return r
}

// countDetailRows: una fila por línea; las diferencias negativas en rojo, positivas en verde.
func countDetailRows(lines []entity.InventoryCountLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		valueColor := colorGray
		if l.VarianceValue != nil && l.VarianceValue.IsNegative() {
			valueColor = colorRed
		} else if l.VarianceValue != nil && l.VarianceValue.IsPositive() {
			valueColor = colorGreen
		}
		value := "—"
		if l.VarianceValue != nil {
			value = "$" + formatMoney(l.VarianceValue.StringFixed(0))
		}
		result = append(result, row.New(7).Add(
			col.New(4).Add(text.New(l.ProductID, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(formatQty(l.TheoreticalQuantity), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(optionalQty(l.PhysicalQuantity), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(optionalQty(l.Variance), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+formatMoney(l.AverageCost.StringFixed(0)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(value, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1, Color: valueColor})),
		))
	}
	return result
}

func countTotalsRow(a *count.VarianceAnalysis) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string, c *props.Color) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Color: c})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Sobrantes:"),
			label("Faltantes:"),
			label("DIFERENCIA NETA:"),
		),
		col.New(3).Add(
			value("$"+formatMoney(a.SurplusValue.StringFixed(0)), colorGreen),
			value("$"+formatMoney(a.ShortageValue.StringFixed(0)), colorRed),
			value("$"+formatMoney(a.TotalVarianceValue.StringFixed(0)), colorPrimary),
		),
	)
}

func signatureRow() core.Row {
	sign := func(label string) core.Col {
		return col.New(6).Add(text.New("______________________________\n"+label, props.Text{Size: 8, Align: align.Center, Color: colorGray}))
	}
	return row.New(12).Add(sign("Despacha"), sign("Recibe"))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatQty(d decimal.Decimal) string {
	return d.String()
}

func optionalQty(d *decimal.Decimal) string {
	if d == nil {
		return "—"
	}
	return d.String()
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if len(s) > 0 && s[0] == '-' {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
