package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/storefront/binder"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/storage"
	"github.com/dmitrymomot/storefront/pkg/validator"
)

// ErrorRule maps every error matching Target (errors.Is) to a status and code.
// Message is optional; the code is used when empty.
type ErrorRule struct {
	Target  error
	Status  int
	Code    string
	Message string
}

// RetryAfterSeconds is sent with transient failures.
const RetryAfterSeconds = 1

// ErrorMapper turns errors into JSON error envelopes.
//
// Lookup order: validation errors (422), binder errors (400), rules in the
// order given, HTTPError, transient storage failures (503 TRY_AGAIN), and
// finally 500.
type ErrorMapper struct {
	log   *slog.Logger
	rules []ErrorRule
}

var defaultMapper = &ErrorMapper{log: slog.New(slog.DiscardHandler)}

// NewErrorMapper returns a mapper that logs through log.
func NewErrorMapper(log *slog.Logger, rules ...ErrorRule) *ErrorMapper {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ErrorMapper{log: log, rules: rules}
}

// With returns a copy of m extended with more rules, checked after the existing ones.
func (m *ErrorMapper) With(rules ...ErrorRule) *ErrorMapper {
	merged := make([]ErrorRule, 0, len(m.rules)+len(rules))
	merged = append(merged, m.rules...)
	merged = append(merged, rules...)
	return &ErrorMapper{log: m.log, rules: merged}
}

// Handle satisfies ErrorHandler[Context].
func (m *ErrorMapper) Handle(ctx Context, err error) {
	m.ServeError(ctx.ResponseWriter(), ctx.Request(), err)
}

// ServeError writes err as a JSON error response. Its signature matches the
// error callbacks of the session and rate limiter middlewares.
func (m *ErrorMapper) ServeError(w http.ResponseWriter, r *http.Request, err error) {
	d := m.detail(err)

	attrs := []any{
		logger.Error(err),
		slog.Int("status", d.status),
		slog.String("code", d.Code),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	}
	if d.status >= http.StatusInternalServerError {
		m.log.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		m.log.WarnContext(r.Context(), "request rejected", attrs...)
	}

	writeError(w, d)
}

func (m *ErrorMapper) detail(err error) *ErrorDetail {
	if verrs := validator.Extract(err); len(verrs) > 0 {
		return &ErrorDetail{
			Code:    "VALIDATION_FAILED",
			Message: "request validation failed",
			Details: verrs,
			status:  http.StatusUnprocessableEntity,
		}
	}

	if binder.IsBindError(err) {
		return &ErrorDetail{Code: ErrBadRequest.Key, Message: err.Error(), status: http.StatusBadRequest}
	}

	for _, rule := range m.rules {
		if rule.Target != nil && errors.Is(err, rule.Target) {
			msg := rule.Message
			if msg == "" {
				msg = rule.Target.Error()
			}
			return &ErrorDetail{Code: rule.Code, Message: msg, status: rule.Status}
		}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		d := &ErrorDetail{Code: httpErr.Key, status: httpErr.Code}
		if httpErr.Code == http.StatusServiceUnavailable {
			d.retryAfter = RetryAfterSeconds
		}
		return d
	}

	if storage.IsTransient(err) {
		return &ErrorDetail{
			Code:       ErrServiceUnavailable.Key,
			Message:    "temporary failure, try again",
			status:     http.StatusServiceUnavailable,
			retryAfter: RetryAfterSeconds,
		}
	}

	return &ErrorDetail{Code: ErrInternal.Key, Message: "internal error", status: http.StatusInternalServerError}
}
