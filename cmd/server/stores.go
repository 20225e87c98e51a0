package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/catalog"
	"github.com/dmitrymomot/storefront/pkg/httpserver"
	"github.com/dmitrymomot/storefront/pkg/identity"
	"github.com/dmitrymomot/storefront/pkg/mongo"
	"github.com/dmitrymomot/storefront/pkg/pg"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage/mongostore"
	"github.com/dmitrymomot/storefront/pkg/storage/pgstore"
)

var errUnknownDriver = errors.New("server.unknown_store_driver")

// backend bundles the persistence layer selected by STORE_DRIVER.
type backend struct {
	sessions session.Store
	items    cart.ItemStore
	users    identity.Storage
	products catalog.Reader
	checks   []httpserver.Check
	close    func(context.Context)
}

func openBackend(ctx context.Context, cfg appConfig, log *slog.Logger) (*backend, error) {
	switch cfg.Driver {
	case driverMemory:
		products := catalog.NewMemoryCatalog()
		if cfg.SeedDemoCatalog {
			for _, p := range demoCatalog() {
				products.Put(p)
			}
		}
		log.WarnContext(ctx, "using in-memory storage, data is lost on restart")
		return &backend{
			sessions: session.NewMemoryStore(),
			items:    cart.NewMemoryItemStore(),
			users:    identity.NewMemoryStorage(),
			products: products,
			close:    func(context.Context) {},
		}, nil

	case driverMongo:
		db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, err
		}
		return &backend{
			sessions: mongostore.NewSessionStore(db),
			items:    mongostore.NewItemStore(db),
			users:    mongostore.NewUserStorage(db),
			products: mongostore.NewCatalog(db),
			checks:   []httpserver.Check{mongo.Healthcheck(db.Client())},
			close: func(ctx context.Context) {
				if err := db.Client().Disconnect(ctx); err != nil {
					log.ErrorContext(ctx, "failed to disconnect from mongodb", "error", err)
				}
			},
		}, nil

	case driverPostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg.Postgres, log); err != nil {
			pool.Close()
			return nil, err
		}
		return &backend{
			sessions: pgstore.NewSessionStore(pool),
			items:    pgstore.NewItemStore(pool),
			users:    pgstore.NewUserStorage(pool),
			products: pgstore.NewCatalog(pool),
			checks:   []httpserver.Check{pg.Healthcheck(pool)},
			close:    func(context.Context) { pool.Close() },
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", errUnknownDriver, cfg.Driver)
}

func demoCatalog() []catalog.Product {
	return []catalog.Product{
		{ID: "sku-tee-black", Title: "Black T-Shirt", Category: "apparel", Thumbnail: "/img/tee-black.jpg", Price: decimal.RequireFromString("19.90"), AvailableQuantity: 25},
		{ID: "sku-hoodie-grey", Title: "Grey Hoodie", Category: "apparel", Thumbnail: "/img/hoodie-grey.jpg", Price: decimal.RequireFromString("49.00"), AvailableQuantity: 10},
		{ID: "sku-mug", Title: "Ceramic Mug", Category: "kitchen", Thumbnail: "/img/mug.jpg", Price: decimal.RequireFromString("12.50"), AvailableQuantity: 40},
		{ID: "sku-poster", Title: "Limited Poster", Category: "art", Thumbnail: "/img/poster.jpg", Price: decimal.RequireFromString("30.00"), AvailableQuantity: 2},
	}
}
