package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler.nil_response")

// HTTPError carries an explicit status and machine-readable code.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string { return e.Key }

// StatusCode returns the HTTP status of the error.
func (e HTTPError) StatusCode() int { return e.Code }

var (
	ErrBadRequest         = HTTPError{Code: http.StatusBadRequest, Key: "BAD_REQUEST"}
	ErrUnauthorized       = HTTPError{Code: http.StatusUnauthorized, Key: "UNAUTHORIZED"}
	ErrForbidden          = HTTPError{Code: http.StatusForbidden, Key: "FORBIDDEN"}
	ErrNotFound           = HTTPError{Code: http.StatusNotFound, Key: "NOT_FOUND"}
	ErrConflict           = HTTPError{Code: http.StatusConflict, Key: "CONFLICT"}
	ErrTooManyRequests    = HTTPError{Code: http.StatusTooManyRequests, Key: "TOO_MANY_REQUESTS"}
	ErrInternal           = HTTPError{Code: http.StatusInternalServerError, Key: "INTERNAL_ERROR"}
	ErrServiceUnavailable = HTTPError{Code: http.StatusServiceUnavailable, Key: "TRY_AGAIN"}
)
