// Package mongostore implements the session, cart item, user and product
// stores on MongoDB.
//
// Sessions embed their anonymous cart lines and carry a version field used as
// a compare-and-set guard: Update is a FindOneAndUpdate filtered by _id and
// the expected version that only ever raises expires_at. Persistent cart
// items rely on a unique (user_id, product_id) index and $inc upserts; merged
// anonymous lines are recorded in merged_lines so a replayed merge is a
// no-op. Call EnsureIndexes once at start-up before serving traffic.
//
// Network failures and timeouts are wrapped with storage.ErrUnavailable.
package mongostore
