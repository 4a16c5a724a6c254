package query

import (
	"context"
	"sync"
)

// Subscription is one consumer's interest in a key. The entry stays live
// until every subscription on it is closed.
type Subscription struct {
	store   *Store
	key     Key
	entry   *entry
	closed  bool
	updated chan struct{}
	once    sync.Once
}

func newSubscription(s *Store, key Key) *Subscription {
	return &Subscription{
		store:   s,
		key:     key,
		updated: make(chan struct{}, 1),
	}
}

// Key returns the subscribed key.
func (sub *Subscription) Key() Key { return sub.key }

// Snapshot returns the entry's current state.
func (sub *Subscription) Snapshot() Snapshot {
	sub.store.mu.Lock()
	defer sub.store.mu.Unlock()

	if sub.closed || sub.entry == nil {
		return Snapshot{Key: sub.key, Status: StatusError, Err: ErrStoreClosed}
	}
	return sub.store.snapshotLocked(sub.entry)
}

// Updated signals after the entry changed. Signals coalesce: a receiver
// must re-read Snapshot rather than count them.
func (sub *Subscription) Updated() <-chan struct{} {
	return sub.updated
}

// Wait blocks until the entry has settled on a result or ctx is done.
func (sub *Subscription) Wait(ctx context.Context) (Snapshot, error) {
	for {
		snap := sub.Snapshot()
		if snap.Settled() {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-sub.updated:
		}
	}
}

// Refetch starts a new fetch for the key unless one is already running.
func (sub *Subscription) Refetch() {
	sub.store.refetch(sub)
}

// Close unsubscribes. It is safe to call more than once.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.store.release(sub)
	})
}

func (sub *Subscription) signal() {
	select {
	case sub.updated <- struct{}{}:
	default:
	}
}
