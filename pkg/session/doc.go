// Package session implements server-side sessions referenced by a signed
// cookie, shared by anonymous visitors and logged-in users.
//
// Every request goes through Manager.ResolveOrCreate (usually via
// Manager.Middleware). A valid session has its expiry slid forward by the
// configured TTL and its cookie refreshed; a missing, tampered, unknown or
// expired cookie silently yields a new anonymous session. Invalid sessions
// are never surfaced as errors, only store failures are.
//
// # Lifecycle
//
//	Anonymous --BindUser--> Bound --Revoke / expiry / eviction--> deleted
//	Anonymous --expiry--> deleted (a new anonymous session on next contact)
//
// BindUser is idempotent for the same user and refuses to rebind a session
// owned by someone else (ErrAlreadyBoundToOtherUser). Rotate moves a session
// under a fresh id, which callers use right after login.
//
// # Concurrency
//
// Sessions carry a Version. Store.Update is a compare-and-set on it, and
// Manager.Modify wraps read-modify-write cycles in a bounded retry loop, so
// two tabs mutating the same session never lose an update. Expiry renewal
// goes through Store.Touch, which does not bump the version.
//
// # Usage
//
//	cookies, _ := cookie.New([]string{secret}, cookie.WithSecure(true))
//	mgr := session.New(
//	    session.WithStore(store),
//	    session.WithCookieManager(cookies),
//	    session.WithConfig(cfg),
//	)
//	r.Use(mgr.Middleware)
//	r.With(mgr.RequireUser).Get("/account/devices", handler)
//
// Expired records are removed lazily on access and periodically by Sweeper.
package session
