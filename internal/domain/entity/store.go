package entity

// Store tienda o sucursal (dato de referencia, propiedad de un colaborador externo).
type Store struct {
	ID   string
	Name string
}

// Supplier proveedor (dato de referencia).
type Supplier struct {
	ID   string
	Name string
}
