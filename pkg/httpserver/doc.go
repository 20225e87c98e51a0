// Package httpserver runs an http.Server bound to a context and provides
// liveness and readiness handlers.
//
// Run blocks until the context is cancelled, then shuts down gracefully
// within ShutdownTimeout. Signal handling belongs to the caller, which lets
// the server share a lifetime with other workers in an errgroup:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(func() error { return httpserver.New(cfg.HTTP).Run(ctx, router) })
package httpserver
