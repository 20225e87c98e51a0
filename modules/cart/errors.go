package cart

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/storefront/handler"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/catalog"
	"github.com/dmitrymomot/storefront/pkg/session"
)

var errNoSession = errors.New("cart.no_session")

// ErrorRules maps cart errors to HTTP responses.
func ErrorRules() []handler.ErrorRule {
	return []handler.ErrorRule{
		{Target: cart.ErrOutOfStock, Status: http.StatusConflict, Code: "OUT_OF_STOCK", Message: "not enough stock for the requested quantity"},
		{Target: cart.ErrQuantityLimit, Status: http.StatusConflict, Code: "QUANTITY_LIMIT", Message: "line quantity limit reached"},
		{Target: cart.ErrLineNotFound, Status: http.StatusNotFound, Code: "LINE_NOT_FOUND"},
		{Target: catalog.ErrProductNotFound, Status: http.StatusNotFound, Code: "PRODUCT_NOT_FOUND"},
		{Target: cart.ErrInvalidDelta, Status: http.StatusUnprocessableEntity, Code: "INVALID_DELTA", Message: "delta must not be zero"},
		{Target: cart.ErrNoLines, Status: http.StatusUnprocessableEntity, Code: "NO_LINES", Message: "at least one line id is required"},
		{Target: cart.ErrInvalidProductID, Status: http.StatusBadRequest, Code: "INVALID_PRODUCT_ID"},
		{Target: session.ErrAlreadyBoundToOtherUser, Status: http.StatusConflict, Code: "SESSION_BOUND_TO_OTHER_USER"},
	}
}
