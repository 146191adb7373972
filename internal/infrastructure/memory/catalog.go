package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-core/internal/domain"
	"github.com/jhoicas/stock-core/internal/domain/entity"
)

// Catalog productos, tiendas y proveedores de referencia cargados al inicio.
type Catalog struct {
	mu        sync.RWMutex
	products  map[string]*entity.Product
	stores    map[string]*entity.Store
	suppliers map[string]*entity.Supplier
}

// NewCatalog crea un catálogo vacío.
func NewCatalog() *Catalog {
	return &Catalog{
		products:  make(map[string]*entity.Product),
		stores:    make(map[string]*entity.Store),
		suppliers: make(map[string]*entity.Supplier),
	}
}

func (c *Catalog) AddProduct(p entity.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = &p
}

func (c *Catalog) AddStore(s entity.Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores[s.ID] = &s
}

func (c *Catalog) AddSupplier(s entity.Supplier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suppliers[s.ID] = &s
}

// ProductRepository vista de productos del catálogo.
type ProductRepository struct{ c *Catalog }

func (c *Catalog) Products() ProductRepository { return ProductRepository{c} }

func (r ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()
	if p, ok := r.c.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.NewNotFound("product", id)
}

// StoreRepository vista de tiendas del catálogo.
type StoreRepository struct{ c *Catalog }

func (c *Catalog) Stores() StoreRepository { return StoreRepository{c} }

func (r StoreRepository) GetByID(_ context.Context, id string) (*entity.Store, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()
	if s, ok := r.c.stores[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.NewNotFound("store", id)
}

// SupplierRepository vista de proveedores del catálogo.
type SupplierRepository struct{ c *Catalog }

func (c *Catalog) Suppliers() SupplierRepository { return SupplierRepository{c} }

func (r SupplierRepository) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()
	if s, ok := r.c.suppliers[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.NewNotFound("supplier", id)
}
