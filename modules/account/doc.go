// Package account exposes the session bootstrap, registration, login,
// logout, device eviction and account endpoints as a chi router.
//
// Device-cap rejections answer 400 with code TOO_MANY_DEVICES; the client
// then calls /devices/evict-single or /devices/evict-all with the same
// credentials and retries the login.
package account
