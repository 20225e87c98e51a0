package identity

import "errors"

var (
	ErrUserNotFound       = errors.New("identity.user_not_found")
	ErrUserExists         = errors.New("identity.user_exists")
	ErrInvalidCredentials = errors.New("identity.invalid_credentials")
)
