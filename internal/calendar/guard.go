package calendar

import (
	"sync"
	"sync/atomic"
)

// Guard admits one sync at a time. The zero value is ready to use.
type Guard struct {
	busy atomic.Bool
}

// TryAcquire claims the guard or fails with ErrSyncInProgress. The returned
// release func may be called more than once.
func (g *Guard) TryAcquire() (release func(), err error) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	var once sync.Once
	return func() {
		once.Do(func() { g.busy.Store(false) })
	}, nil
}

// Busy reports whether a sync currently holds the guard.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
