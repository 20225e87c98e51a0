package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/storefront/handler"
	accountmodule "github.com/dmitrymomot/storefront/modules/account"
	cartmodule "github.com/dmitrymomot/storefront/modules/cart"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/clientip"
	"github.com/dmitrymomot/storefront/pkg/config"
	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/cors"
	"github.com/dmitrymomot/storefront/pkg/devices"
	"github.com/dmitrymomot/storefront/pkg/httpserver"
	"github.com/dmitrymomot/storefront/pkg/identity"
	"github.com/dmitrymomot/storefront/pkg/lock"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
	"github.com/dmitrymomot/storefront/pkg/redis"
	"github.com/dmitrymomot/storefront/pkg/requestid"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
	"github.com/dmitrymomot/storefront/svc/auth"
)

func main() {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(
		logger.WithEnvironment(cfg.App.Environment(), cfg.App.Name),
		logger.WithConfig(cfg.Log),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		store.close(closeCtx)
	}()

	checks := store.checks
	var (
		locker      lock.Locker
		bucketStore ratelimiter.Store
	)
	if cfg.Redis.Enabled() {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error("failed to close redis client", logger.Error(err))
			}
		}()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.KeyPrefix, cfg.Lock)
		bucketStore = ratelimiter.NewRedisStore(rdb, cfg.Redis.KeyPrefix)
		checks = append(checks, redis.Healthcheck(rdb))
	} else {
		log.Warn("REDIS_URL is not set, cart locks and login rate limits are local to this process")
		memStore := ratelimiter.NewMemoryStore()
		defer memStore.Close()
		locker = lock.NewMemoryLocker(cfg.Lock)
		bucketStore = memStore
	}

	loginLimiter, err := ratelimiter.NewBucket(bucketStore, cfg.LoginRate)
	if err != nil {
		return err
	}

	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return err
	}

	if cfg.App.Environment().SecureCookies() && !cfg.Session.SecureCookies {
		log.Warn("session cookies are not marked Secure outside development")
	}

	retrier := storage.NewRetrier(cfg.Storage)
	errs := handler.NewErrorMapper(log)

	sessions := session.NewFromConfig(cfg.Session,
		session.WithStore(store.sessions),
		session.WithCookieManager(cookies),
		session.WithRetrier(retrier),
		session.WithLogger(log),
		session.WithErrorHandler(errs.ServeError),
	)
	enforcer := devices.NewEnforcer(sessions.Store(), cfg.Devices,
		devices.WithRetrier(retrier),
		devices.WithLogger(log),
	)
	carts := cart.NewResolver(sessions, store.items, store.products,
		cart.WithConfig(cfg.Cart),
		cart.WithLocker(locker),
		cart.WithRetrier(retrier),
		cart.WithLogger(log),
	)
	users := identity.NewService(store.users,
		identity.WithConfig(cfg.Identity),
		identity.WithRetrier(retrier),
		identity.WithLogger(log),
	)
	authSvc := auth.NewService(users, sessions, enforcer, carts, auth.WithLogger(log))

	r := chi.NewRouter()
	r.Use(requestid.Middleware())
	r.Use(clientip.NewFromConfig(cfg.ClientIP).Middleware)
	r.Use(cors.Middleware(cfg.CORS))

	r.Get("/health/live", httpserver.Liveness())
	r.Get("/health/ready", httpserver.Readiness(log, 3*time.Second, checks...))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(sessions.Middleware)
		api.Mount("/cart", cartmodule.Router(cartmodule.RouterOptions{
			Resolver: carts,
			Errors:   errs,
		}))
		api.Mount("/", accountmodule.Router(accountmodule.RouterOptions{
			Auth:         authSvc,
			Sessions:     sessions,
			Errors:       errs,
			LoginLimiter: loginLimiter,
		}))
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errs.ServeError(w, r, handler.ErrNotFound)
	})

	server := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
	sweeper := session.NewSweeper(sessions, cfg.Session.SweepInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx, r) })
	g.Go(func() error { return sweeper.Run(ctx) })

	log.Info("storefront started",
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("store", cfg.Driver),
		slog.Bool("redis", cfg.Redis.Enabled()),
	)
	return g.Wait()
}
