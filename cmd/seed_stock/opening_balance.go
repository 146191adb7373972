package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-core/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-core/internal/domain/inventory"
)

// saldosXML formato del archivo de saldos iniciales:
//
//	<saldos fecha="2026-01-01" usuario="migracion">
//	  <tienda id="T1" nombre="Centro">
//	    <item producto="P1" sku="CAF-500" nombre="Café 500g" cantidad="12" costo="18500"/>
//	  </tienda>
//	</saldos>
type saldosXML struct {
	Fecha   string      `xml:"fecha,attr"`
	Usuario string      `xml:"usuario,attr"`
	Tiendas []tiendaXML `xml:"tienda"`
}

type tiendaXML struct {
	ID     string    `xml:"id,attr"`
	Nombre string    `xml:"nombre,attr"`
	Items  []itemXML `xml:"item"`
}

type itemXML struct {
	Producto string `xml:"producto,attr"`
	SKU      string `xml:"sku,attr"`
	Nombre   string `xml:"nombre,attr"`
	Cantidad string `xml:"cantidad,attr"`
	Costo    string `xml:"costo,attr"`
}

// openingLine saldo de un producto en una tienda.
type openingLine struct {
	StoreID   string
	ProductID string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}

// openingBalance contenido normalizado del archivo.
type openingBalance struct {
	Date     time.Time
	User     string
	Stores   []entity.Store
	Products []entity.Product
	Lines    []openingLine
}

// parseOpeningBalance decodifica el XML (UTF-8 o ISO-8859-1) y valida cada línea.
// Un producto repetido en la misma tienda suma cantidades y promedia el costo.
func parseOpeningBalance(r io.Reader) (*openingBalance, error) {
	var doc saldosXML
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToUpper(charset) {
		case "ISO-8859-1", "ISO8859-1", "LATIN1":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		case "WINDOWS-1252", "CP1252":
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decodificar XML: %w", err)
	}

	ob := &openingBalance{Date: time.Now().UTC(), User: strings.TrimSpace(doc.Usuario)}
	if ob.User == "" {
		ob.User = "seed_stock"
	}
	if f := strings.TrimSpace(doc.Fecha); f != "" {
		d, err := time.Parse(time.DateOnly, f)
		if err != nil {
			return nil, fmt.Errorf("fecha %q: %w", f, err)
		}
		ob.Date = d
	}

	products := make(map[string]entity.Product)
	type key struct{ store, product string }
	lines := make(map[key]*openingLine)
	var order []key
	for _, t := range doc.Tiendas {
		storeID := strings.TrimSpace(t.ID)
		if storeID == "" {
			return nil, fmt.Errorf("tienda sin id")
		}
		ob.Stores = append(ob.Stores, entity.Store{ID: storeID, Name: strings.TrimSpace(t.Nombre)})
		for i, it := range t.Items {
			productID := strings.TrimSpace(it.Producto)
			if productID == "" {
				return nil, fmt.Errorf("tienda %s, item %d: producto vacío", storeID, i+1)
			}
			qty, err := decimal.NewFromString(strings.TrimSpace(it.Cantidad))
			if err != nil || !qty.IsPositive() || domaininv.ExceedsScale(qty, domaininv.QuantityScale) {
				return nil, fmt.Errorf("tienda %s, producto %s: cantidad inválida %q", storeID, productID, it.Cantidad)
			}
			cost := decimal.Zero
			if c := strings.TrimSpace(it.Costo); c != "" {
				cost, err = decimal.NewFromString(c)
				if err != nil || cost.IsNegative() || domaininv.ExceedsScale(cost, domaininv.CostScale) {
					return nil, fmt.Errorf("tienda %s, producto %s: costo inválido %q", storeID, productID, it.Costo)
				}
			}
			if _, ok := products[productID]; !ok {
				products[productID] = entity.Product{ID: productID, SKU: strings.TrimSpace(it.SKU), Name: strings.TrimSpace(it.Nombre)}
			}
			k := key{storeID, productID}
			if l, ok := lines[k]; ok {
				total := l.Quantity.Add(qty)
				l.UnitCost = l.Quantity.Mul(l.UnitCost).Add(qty.Mul(cost)).DivRound(total, domaininv.CostScale)
				l.Quantity = total
				continue
			}
			lines[k] = &openingLine{StoreID: storeID, ProductID: productID, Quantity: qty, UnitCost: cost}
			order = append(order, k)
		}
	}
	for _, k := range order {
		ob.Lines = append(ob.Lines, *lines[k])
	}
	for _, p := range products {
		ob.Products = append(ob.Products, p)
	}
	sort.Slice(ob.Products, func(i, j int) bool { return ob.Products[i].ID < ob.Products[j].ID })
	return ob, nil
}

// writeSQL emite el script equivalente a aplicar los saldos: catálogos, niveles y un
// movimiento de ajuste por línea. Sobre un nivel existente suma cantidad y recalcula el CUMP.
func writeSQL(w io.Writer, ob *openingBalance) error {
	var b strings.Builder
	b.WriteString("-- Saldos iniciales de inventario\n")
	fmt.Fprintf(&b, "-- Fecha %s, usuario %s\n\nBEGIN;\n\n", ob.Date.Format(time.DateOnly), escapeSQL(ob.User))

	b.WriteString("-- 1. Tiendas\n")
	for _, s := range ob.Stores {
		fmt.Fprintf(&b, "INSERT INTO stores (id, name) VALUES ('%s', '%s') ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name;\n",
			escapeSQL(s.ID), escapeSQL(s.Name))
	}

	b.WriteString("\n-- 2. Productos\n")
	for _, p := range ob.Products {
		fmt.Fprintf(&b, "INSERT INTO products (id, sku, name) VALUES ('%s', '%s', '%s') ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name;\n",
			escapeSQL(p.ID), escapeSQL(p.SKU), escapeSQL(p.Name))
	}

	b.WriteString("\n-- 3. Niveles de stock y movimientos\n")
	date := ob.Date.Format(time.RFC3339)
	for _, l := range ob.Lines {
		store, product := escapeSQL(l.StoreID), escapeSQL(l.ProductID)
		fmt.Fprintf(&b, "INSERT INTO stock_levels (store_id, product_id, quantity, average_cost, last_updated) VALUES ('%s', '%s', %s, %s, now())\n",
			store, product, l.Quantity, l.UnitCost)
		b.WriteString("ON CONFLICT (store_id, product_id) DO UPDATE SET\n")
		b.WriteString("  average_cost = CASE WHEN stock_levels.quantity + EXCLUDED.quantity = 0 THEN EXCLUDED.average_cost\n")
		b.WriteString("    ELSE ROUND((stock_levels.quantity * stock_levels.average_cost + EXCLUDED.quantity * EXCLUDED.average_cost) / (stock_levels.quantity + EXCLUDED.quantity), 6) END,\n")
		b.WriteString("  quantity = stock_levels.quantity + EXCLUDED.quantity,\n")
		b.WriteString("  last_updated = now(), version = stock_levels.version + 1;\n")
		fmt.Fprintf(&b, "INSERT INTO stock_movements (id, date, type, store_id, product_id, quantity_delta, unit_cost, value, reference_id, reference_type, created_by, comment)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', '%s', '%s', %s, %s, %s, '', '%s', '%s', 'Saldo inicial');\n",
			uuid.New().String(), date, entity.MovementAdjustment, store, product,
			l.Quantity, l.UnitCost, l.Quantity.Mul(l.UnitCost), entity.ReferenceOpeningBalance, escapeSQL(ob.User))
	}
	b.WriteString("\nCOMMIT;\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
