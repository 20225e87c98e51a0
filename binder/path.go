package binder

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
)

// Path fills struct fields tagged `path:"name"` using extractor, which is
// usually chi.URLParam. Supported field kinds are string and signed integers.
// Untagged fields are left alone.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: nil extractor", ErrInvalidPath)
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a pointer to struct", ErrInvalidPath)
		}
		rv = rv.Elem()
		rt := rv.Type()

		for i := range rv.NumField() {
			field, meta := rv.Field(i), rt.Field(i)
			name := meta.Tag.Get("path")
			if name == "" || name == "-" || !field.CanSet() {
				continue
			}

			value := extractor(r, name)
			if value == "" {
				continue
			}

			switch field.Kind() {
			case reflect.String:
				field.SetString(value)
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				n, err := strconv.ParseInt(value, 10, field.Type().Bits())
				if err != nil {
					return fmt.Errorf("%w: %s: invalid integer %q", ErrInvalidPath, name, value)
				}
				field.SetInt(n)
			default:
				return fmt.Errorf("%w: %s: unsupported kind %s", ErrInvalidPath, name, field.Kind())
			}
		}
		return nil
	}
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}
