package cart

import "errors"

var (
	ErrOutOfStock       = errors.New("cart.out_of_stock")
	ErrLineNotFound     = errors.New("cart.line_not_found")
	ErrQuantityLimit    = errors.New("cart.quantity_limit_exceeded")
	ErrInvalidDelta     = errors.New("cart.invalid_delta")
	ErrNoLines          = errors.New("cart.no_lines")
	ErrSessionNotBound  = errors.New("cart.session_not_bound")
	ErrInvalidProductID = errors.New("cart.invalid_product_id")

	// errSessionBound is returned by SessionLines when a concurrent login
	// bound the session; the caller continues with the user's cart.
	errSessionBound = errors.New("cart.session_bound")
)
