package catalog

import "errors"

var ErrProductNotFound = errors.New("catalog.product_not_found")
