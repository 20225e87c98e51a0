package lock

import "errors"

var ErrNotAcquired = errors.New("lock.not_acquired")
