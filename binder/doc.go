// Package binder turns HTTP requests into typed values for handler.Wrap.
//
// JSON decodes strict JSON bodies; Path copies router parameters into struct
// fields tagged with `path:"..."`. Binders run in the order given to
// handler.WithBinders, and every failure wraps one of the package errors so
// IsBindError can map it to 400 Bad Request.
package binder
