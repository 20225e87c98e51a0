package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is the read-only view of a catalog item the cart needs.
type Product struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Category          string          `json:"category"`
	Thumbnail         string          `json:"thumbnail"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int             `json:"available_quantity"`
}

// CanSupply reports whether the product stock covers quantity units.
func (p Product) CanSupply(quantity int) bool {
	return p.AvailableQuantity >= quantity
}

// Reader gives read access to products. Implementations return
// ErrProductNotFound for unknown ids.
type Reader interface {
	Get(ctx context.Context, id string) (Product, error)

	// GetMany returns the known products keyed by id; unknown ids are
	// simply absent from the result.
	GetMany(ctx context.Context, ids []string) (map[string]Product, error)
}
