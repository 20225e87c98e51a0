// Package cart resolves the shopping cart of a request.
//
// An anonymous session keeps its lines inside the session record
// (SessionLines). Once the session is bound to a user, the cart lives in
// persistent items keyed by (user, product) (UserLines). Resolver hides the
// difference: every operation picks the LineStore that owns the session's
// cart at that moment.
//
// # Merge on login
//
// Right after a session is bound, MergeOnBind adds each anonymous line to the
// user's cart. Quantities accumulate: a persistent {P1:2} plus an anonymous
// {P1:1} gives {P1:3}. Lines that fail availability checks are skipped and
// reported in MergeReport.Skipped instead of failing the login. A merge cut
// short by a store failure is completed by the next cart operation of that
// session.
//
// # Concurrency
//
// Session lines are updated with optimistic compare-and-set on the session.
// Writes to a user's cart, including the merge, run under a per-user lock
// from pkg/lock, and ItemStore.Increment is an atomic upsert, so concurrent
// adds never lose an update.
//
// # Availability
//
// LineView.AvailabilityStatus is computed on every ListItems call by
// comparing the line quantity with the product's current stock; nothing is
// stored.
package cart
