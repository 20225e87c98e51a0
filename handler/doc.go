// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request value filled by binders and
// returns a Response. Wrap turns it into an http.HandlerFunc. Responses use a
// single JSON envelope:
//
//	{"data": ..., "meta": {...}}
//	{"error": {"code": "TOO_MANY_DEVICES", "message": "...", "details": [...]}}
//
// Handlers report failures with Error(err); the ErrorMapper given to
// WithErrorHandler translates the error into a status and a stable code.
// Modules register their own sentinels as ErrorRules:
//
//	errs := handler.NewErrorMapper(log,
//		handler.ErrorRule{Target: cart.ErrOutOfStock, Status: http.StatusConflict, Code: "OUT_OF_STOCK"},
//	)
//
// Transient storage failures are answered with 503, code TRY_AGAIN and a
// Retry-After header so clients can tell "try again" from "this request is
// wrong".
package handler
