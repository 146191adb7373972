package entity

// Product referencia mínima al catálogo externo; el costo vive por tienda en StockLevel.
type Product struct {
	ID   string
	SKU  string
	Name string
}
