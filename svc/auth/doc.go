// Package auth implements the account flows of the storefront: login with
// device-cap enforcement and anonymous cart merge, explicit device eviction,
// logout and account deletion.
//
// Login order is fixed: credentials are verified, the device cap is checked,
// the session is bound, the anonymous cart is merged into the user's cart and
// finally the session id is rotated when configured. A rejected login leaves
// the presented session exactly as it was.
package auth
