package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/storefront/pkg/catalog"
	"github.com/dmitrymomot/storefront/pkg/pg"
)

// Price is read as text and parsed with decimal to keep numeric precision.
const productColumns = `id, title, category, thumbnail, price::text, available_quantity`

// Catalog reads the products table.
type Catalog struct {
	db DB
}

func NewCatalog(db DB) *Catalog {
	return &Catalog{db: db}
}

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var (
		p     catalog.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Category, &p.Thumbnail, &price, &p.AvailableQuantity); err != nil {
		return catalog.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("product %s: malformed price: %w", p.ID, err)
	}
	p.Price = d
	return p, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (catalog.Product, error) {
	p, err := scanProduct(c.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	if err != nil {
		return catalog.Product{}, mapErr(err)
	}
	return p, nil
}

func (c *Catalog) GetMany(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
	result := make(map[string]catalog.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := c.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, mapErr(err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}
