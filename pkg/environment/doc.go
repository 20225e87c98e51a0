// Package environment resolves the deployment stage from APP_ENV and exposes
// the few switches that depend on it: log format and level, and whether
// cookies are marked Secure.
package environment
