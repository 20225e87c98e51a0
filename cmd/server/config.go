package main

import (
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/clientip"
	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/cors"
	"github.com/dmitrymomot/storefront/pkg/devices"
	"github.com/dmitrymomot/storefront/pkg/environment"
	"github.com/dmitrymomot/storefront/pkg/httpserver"
	"github.com/dmitrymomot/storefront/pkg/identity"
	"github.com/dmitrymomot/storefront/pkg/lock"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/mongo"
	"github.com/dmitrymomot/storefront/pkg/pg"
	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
	"github.com/dmitrymomot/storefront/pkg/redis"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

const (
	driverMemory   = "memory"
	driverMongo    = "mongo"
	driverPostgres = "postgres"
)

type appConfig struct {
	App    environment.Config
	Log    logger.Config
	Driver string `env:"STORE_DRIVER" envDefault:"memory"`
	// SeedDemoCatalog fills the in-memory catalog with sample products.
	SeedDemoCatalog bool `env:"STORE_SEED_DEMO_CATALOG" envDefault:"true"`

	Storage  storage.Config
	Mongo    mongo.Config
	Postgres pg.Config
	Redis    redis.Config

	Session  session.Config
	Cookie   cookie.Config
	Devices  devices.Config
	Cart     cart.Config
	Lock     lock.Config
	Identity identity.Config

	LoginRate ratelimiter.Config `envPrefix:"AUTH_LOGIN_"`
	ClientIP  clientip.Config
	CORS      cors.Config
	HTTP      httpserver.Config
}
