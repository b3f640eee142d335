package engine

import (
	"context"
	"sync"
)

// RunLock keeps at most one task run in flight. TryLock never blocks: ok is
// false when another run holds the lock.
type RunLock interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// LocalLock is an in-process RunLock.
type LocalLock struct {
	mu sync.Mutex
}

// TryLock acquires the lock if it is free.
func (l *LocalLock) TryLock(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}
