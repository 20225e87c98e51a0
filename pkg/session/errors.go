package session

import "errors"

var (
	// ErrInvalidSession indicates a malformed session record or a cookie
	// whose signature could not be verified
	ErrInvalidSession = errors.New("session.invalid")

	// ErrSessionExpired indicates the session has expired
	ErrSessionExpired = errors.New("session.expired")

	// ErrSessionNotFound indicates no session was found
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSessionExists indicates a session with the same id is already stored
	ErrSessionExists = errors.New("session.already_exists")

	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("session.token_generation_failed")

	// ErrAlreadyBoundToOtherUser is returned when binding a session that
	// already belongs to a different user
	ErrAlreadyBoundToOtherUser = errors.New("session.already_bound_to_other_user")

	// ErrNotAuthenticated indicates the request needs a bound session
	ErrNotAuthenticated = errors.New("session.not_authenticated")
)
