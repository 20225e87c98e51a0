package account

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/storefront/handler"
	"github.com/dmitrymomot/storefront/pkg/devices"
	"github.com/dmitrymomot/storefront/pkg/identity"
	"github.com/dmitrymomot/storefront/pkg/session"
)

var errNoSession = errors.New("account.no_session")

// ErrorRules maps account errors to HTTP responses.
func ErrorRules() []handler.ErrorRule {
	return []handler.ErrorRule{
		{
			Target:  devices.ErrTooManyDevices,
			Status:  http.StatusBadRequest,
			Code:    "TOO_MANY_DEVICES",
			Message: "maximum number of devices reached, evict a device to log in",
		},
		{
			Target:  session.ErrAlreadyBoundToOtherUser,
			Status:  http.StatusConflict,
			Code:    "SESSION_BOUND_TO_OTHER_USER",
			Message: "this session belongs to another user, log out first",
		},
		{Target: session.ErrNotAuthenticated, Status: http.StatusUnauthorized, Code: "NOT_AUTHENTICATED"},
		{Target: identity.ErrInvalidCredentials, Status: http.StatusUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid login or password"},
		{Target: identity.ErrUserExists, Status: http.StatusConflict, Code: "USER_EXISTS", Message: "email or username already taken"},
		{Target: identity.ErrUserNotFound, Status: http.StatusNotFound, Code: "USER_NOT_FOUND"},
	}
}
