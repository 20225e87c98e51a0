package binder

import "errors"

var (
	ErrMissingContentType   = errors.New("binder.missing_content_type")
	ErrUnsupportedMediaType = errors.New("binder.unsupported_media_type")
	ErrInvalidJSON          = errors.New("binder.invalid_json")
	ErrBodyTooLarge         = errors.New("binder.body_too_large")
	ErrInvalidPath          = errors.New("binder.invalid_path")
)

// IsBindError reports whether err came from one of the binders, meaning the
// request itself is malformed.
func IsBindError(err error) bool {
	return errors.Is(err, ErrMissingContentType) ||
		errors.Is(err, ErrUnsupportedMediaType) ||
		errors.Is(err, ErrInvalidJSON) ||
		errors.Is(err, ErrBodyTooLarge) ||
		errors.Is(err, ErrInvalidPath)
}
