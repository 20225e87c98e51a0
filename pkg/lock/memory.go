package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrymomot/storefront/pkg/storage"
)

// MemoryLocker serialises holders of the same key within one process.
type MemoryLocker struct {
	cfg  Config
	mu   sync.Mutex
	keys map[string]*memoryLock
}

type memoryLock struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates a process-local locker. Only WaitTimeout is used.
func NewMemoryLocker(cfg Config) *MemoryLocker {
	return &MemoryLocker{
		cfg:  cfg,
		keys: make(map[string]*memoryLock),
	}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	ml := l.acquireRef(key)

	if l.cfg.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.WaitTimeout)
		defer cancel()
	}

	select {
	case ml.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseRef(key, ml)
		return nil, fmt.Errorf("%w: %w: %w", ErrNotAcquired, storage.ErrUnavailable, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-ml.ch
			l.releaseRef(key, ml)
		})
		return nil
	}, nil
}

func (l *MemoryLocker) acquireRef(key string) *memoryLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	ml, ok := l.keys[key]
	if !ok {
		ml = &memoryLock{ch: make(chan struct{}, 1)}
		l.keys[key] = ml
	}
	ml.refs++
	return ml
}

func (l *MemoryLocker) releaseRef(key string, ml *memoryLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ml.refs--
	if ml.refs == 0 {
		delete(l.keys, key)
	}
}
