// Package devices enforces the maximum number of devices (bound sessions) a
// user may be logged in from at the same time.
//
// The login flow calls CheckAndAdmit before binding a session. When it
// returns ErrTooManyDevices the client is offered a choice between
// EvictOldest and EvictAll, both idempotent: evicting with no sessions left
// succeeds and reports zero.
package devices
