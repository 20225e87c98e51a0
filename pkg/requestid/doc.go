// Package requestid tags every HTTP request with a correlation id.
//
// Middleware reads the X-Request-ID header, keeps it when it is a short
// alphanumeric token and otherwise generates a ULID. The id is echoed back in
// the response, stored in the request context and picked up by
// LoggerExtractor so every log line written for the request carries it:
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware())
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
