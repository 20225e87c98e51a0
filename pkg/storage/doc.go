// Package storage holds the pieces shared by every persistence backend of the
// storefront: the transient error taxonomy and a bounded retry helper.
//
// Backends (memory, MongoDB, PostgreSQL) translate driver specific failures
// into ErrUnavailable (timeouts, network errors, closed pools) and lost
// optimistic updates into ErrConflict. Callers decide what to do with them:
// the Retrier retries ErrUnavailable with capped exponential backoff, while
// compare-and-set loops retry ErrConflict themselves.
//
// # Usage
//
//	r := storage.NewRetrier(storage.DefaultConfig())
//	err := r.Do(ctx, func(ctx context.Context) error {
//	    return store.Delete(ctx, id)
//	})
//	if storage.IsTransient(err) {
//	    // respond with "try again"
//	}
package storage
