package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/storefront/pkg/catalog"
)

// Prices are stored as decimal strings to avoid float rounding.
type productDoc struct {
	ID                string `bson:"_id"`
	Title             string `bson:"title"`
	Category          string `bson:"category"`
	Thumbnail         string `bson:"thumbnail"`
	Price             string `bson:"price"`
	AvailableQuantity int    `bson:"available_quantity"`
}

func (d productDoc) toProduct() (catalog.Product, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("product %s: malformed price: %w", d.ID, err)
	}
	return catalog.Product{
		ID:                d.ID,
		Title:             d.Title,
		Category:          d.Category,
		Thumbnail:         d.Thumbnail,
		Price:             price,
		AvailableQuantity: d.AvailableQuantity,
	}, nil
}

// Catalog reads the products collection maintained by the catalog service.
type Catalog struct {
	coll *mongo.Collection
}

func NewCatalog(db *mongo.Database) *Catalog {
	return &Catalog{coll: db.Collection(ProductsCollection)}
}

func (c *Catalog) Get(ctx context.Context, id string) (catalog.Product, error) {
	var d productDoc
	if err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return catalog.Product{}, catalog.ErrProductNotFound
		}
		return catalog.Product{}, mapErr(err)
	}
	return d.toProduct()
}

func (c *Catalog) GetMany(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
	result := make(map[string]catalog.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cur, err := c.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, mapErr(err)
	}

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err)
	}
	for _, d := range docs {
		p, err := d.toProduct()
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, nil
}
