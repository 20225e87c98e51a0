// Package lock provides keyed mutual exclusion for read-modify-write cycles
// that span several store calls, such as merging an anonymous cart into a
// user's persistent cart while other requests add items to it.
//
// MemoryLocker works within a single process. RedisLocker uses SET NX PX
// leases with a compare-and-delete release and works across replicas.
//
//	unlock, err := locker.Lock(ctx, lock.UserKey(userID.String()))
//	if err != nil {
//	    return err // wraps ErrNotAcquired and storage.ErrUnavailable
//	}
//	defer unlock(context.WithoutCancel(ctx))
package lock
