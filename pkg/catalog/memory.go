package catalog

import (
	"context"
	"sync"
)

// MemoryCatalog is an in-memory Reader with a Put method for seeding.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewMemoryCatalog(products ...Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// Put inserts or replaces a product.
func (c *MemoryCatalog) Put(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

// SetStock changes the available quantity of an existing product.
func (c *MemoryCatalog) SetStock(id string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.AvailableQuantity = quantity
	c.products[id] = p
	return nil
}

func (c *MemoryCatalog) Get(_ context.Context, id string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (c *MemoryCatalog) GetMany(_ context.Context, ids []string) (map[string]Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Product, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}
