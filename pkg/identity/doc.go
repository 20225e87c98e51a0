// Package identity is the first-party credential gateway: it registers users
// with a bcrypt password hash and verifies email-or-username logins.
//
// Service never reveals whether a login exists. Unknown logins and wrong
// passwords both return ErrInvalidCredentials, and both paths perform one
// bcrypt comparison. Store failures are passed through unchanged so HTTP
// layers can answer them with a retryable status instead of 401.
package identity
