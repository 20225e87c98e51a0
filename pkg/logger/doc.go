// Package logger builds the service's *slog.Logger and keeps attribute names
// consistent.
//
// New takes functional options. WithEnvironment picks level and encoding for
// the deployment stage, WithConfig applies LOG_LEVEL and LOG_FORMAT overrides,
// and WithContextExtractors injects request scoped values such as the request
// id into every record logged with a context:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.App.Environment(), cfg.App.Name),
//		logger.WithConfig(cfg.Log),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//
// Helpers in attr.go (SessionID, UserID, ProductID, Error and friends) return
// slog.Attr values. Error and Errors drop nil errors, so
//
//	log.Info("cart merged", logger.Error(err))
//
// needs no nil check.
package logger
