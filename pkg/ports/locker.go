package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises the calls of one session across bridge
// replicas sharing a SessionStore.
type DistributedLocker interface {
	// Lock blocks until the lock on key is held or ctx is done. A holder that
	// never unlocks loses the lock after ttl.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
