package query

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/platform/metrics"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the data of one key. ctx is cancelled when the store closes.
type Fetcher func(ctx context.Context) (any, error)

// Options configures a Store.
type Options struct {
	// GCTime is how long an entry without subscribers is kept. Zero
	// destroys it as soon as the last subscriber leaves.
	GCTime time.Duration
	// MaxRetained caps the number of unsubscribed entries kept; 0 means
	// no cap.
	MaxRetained int
	Logger      logger.Logger
	Metrics     *metrics.Collector
	// Now is the clock used for UpdatedAt; defaults to time.Now.
	Now func() time.Time
}

type entry struct {
	key     Key
	fetcher Fetcher

	status    Status
	data      any
	err       error
	version   uint64
	updatedAt time.Time

	// generation is bumped by every invalidation; appliedGen is the
	// generation the current data was fetched under.
	generation uint64
	appliedGen uint64
	stale      bool

	inflight    bool
	inflightGen uint64
	// refetch asks for a follow-up fetch once the in-flight one, started
	// before the latest invalidation, completes.
	refetch bool

	subs map[*Subscription]struct{}
}

// Store caches query results per key. It is created per session and must
// be closed; nothing in it is global.
type Store struct {
	mu       sync.Mutex
	live     map[Key]*entry
	retained *expirable.LRU[Key, *entry]
	group    singleflight.Group
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log     logger.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		live:    make(map[Key]*entry),
		ctx:     ctx,
		cancel:  cancel,
		log:     opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if s.log == nil {
		s.log = logger.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.GCTime > 0 {
		log := s.log
		s.retained = expirable.NewLRU[Key, *entry](opts.MaxRetained, func(key Key, _ *entry) {
			log.Debug(context.Background(), "cache entry left retention", "key", key)
		}, opts.GCTime)
	}
	return s
}

// Subscribe registers a consumer of key. A fetch starts when the entry is
// new, idle, errored or stale and none is running; otherwise the
// subscription shares the cached or in-flight result. fetcher replaces any
// fetcher previously registered for key.
func (s *Store) Subscribe(key Key, fetcher Fetcher) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := newSubscription(s, key)
	if s.closed {
		sub.closed = true
		return sub
	}

	e := s.lookupLocked(key)
	if e == nil {
		e = &entry{key: key, subs: make(map[*Subscription]struct{})}
	}
	if _, ok := s.live[key]; !ok {
		if s.retained != nil {
			s.retained.Remove(key)
		}
		s.live[key] = e
		s.metrics.SetLiveEntries(len(s.live))
	}
	e.fetcher = fetcher
	e.subs[sub] = struct{}{}
	sub.entry = e

	switch {
	case e.inflight:
		if e.inflightGen < e.generation {
			e.refetch = true
		}
		s.metrics.RecordJoin()
		s.log.Debug(s.ctx, "subscription joined in-flight fetch", "key", key)
	case e.status == StatusIdle || e.status == StatusError || e.stale:
		s.metrics.RecordLookup(false)
		s.startLocked(e)
	default:
		s.metrics.RecordLookup(true)
	}
	return sub
}

// Invalidate marks key stale so the next subscription refetches it. It
// never fetches by itself. A fetch already running completes, but its
// result stays stale.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	e := s.lookupLocked(key)
	if e == nil {
		return
	}
	e.generation++
	e.stale = true
	s.group.Forget(string(key))
	s.metrics.RecordInvalidation()
	s.log.Debug(s.ctx, "query invalidated", "key", key, "generation", e.generation)
	s.notifyLocked(e)
}

// Peek returns the current snapshot of key without subscribing.
func (s *Store) Peek(key Key) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookupLocked(key)
	if e == nil {
		return Snapshot{Key: key}, false
	}
	return s.snapshotLocked(e), true
}

// Mutate runs a write operation. Writes are never de-duplicated; the
// caller invalidates whatever keys the write made obsolete.
func (s *Store) Mutate(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrStoreClosed
	}

	result, err := fn(ctx)
	s.metrics.RecordMutation(err)
	return result, err
}

// Close cancels running fetches, waits for them and drops every entry.
// Subscriptions report ErrStoreClosed afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	for _, e := range s.live {
		for sub := range e.subs {
			sub.closed = true
		}
		s.notifyLocked(e)
	}
	s.live = make(map[Key]*entry)
	s.metrics.SetLiveEntries(0)
	s.mu.Unlock()

	s.wg.Wait()
	if s.retained != nil {
		s.retained.Purge()
	}
}

// lookupLocked finds the live or retained entry of key.
func (s *Store) lookupLocked(key Key) *entry {
	if e, ok := s.live[key]; ok {
		return e
	}
	if s.retained != nil {
		if e, ok := s.retained.Peek(key); ok {
			return e
		}
	}
	return nil
}

// ownsLocked reports whether e is still the entry stored for its key.
func (s *Store) ownsLocked(e *entry) bool {
	return s.lookupLocked(e.key) == e
}

func (s *Store) startLocked(e *entry) {
	e.inflight = true
	e.inflightGen = e.generation
	e.refetch = false
	e.status = StatusLoading
	s.notifyLocked(e)

	gen := e.generation
	fetcher := e.fetcher
	key := string(e.key)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res := <-s.group.DoChan(key, func() (any, error) {
			return fetcher(s.ctx)
		})
		s.complete(e, gen, res.Val, res.Err)
	}()
}

// complete applies a finished fetch to e, or discards it when e was
// destroyed, lost all subscribers, or already holds newer data.
func (s *Store) complete(e *entry, gen uint64, data any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.RecordFetch(err)
	if s.closed {
		return
	}

	owned := s.ownsLocked(e)
	if owned {
		s.group.Forget(string(e.key))
	}
	e.inflight = false

	switch {
	case !owned || len(e.subs) == 0:
		s.discardLocked(e, "unsubscribed")
		return
	case gen < e.appliedGen:
		s.discardLocked(e, "superseded")
		return
	}

	if err != nil {
		e.status = StatusError
		e.err = err
		s.log.Debug(s.ctx, "query fetch failed", "key", e.key, "error", err)
	} else {
		e.status = StatusSuccess
		e.data = data
		e.err = nil
		e.version++
		s.log.Debug(s.ctx, "query fetched", "key", e.key, "version", e.version)
	}
	e.appliedGen = gen
	e.stale = gen != e.generation
	e.updatedAt = s.now()

	if e.refetch {
		s.startLocked(e)
		return
	}
	s.notifyLocked(e)
}

// discardLocked drops a fetch result. The entry keeps its previous data
// but is marked stale so the next subscriber fetches again.
func (s *Store) discardLocked(e *entry, reason string) {
	s.metrics.RecordDiscard(reason)
	s.log.Debug(s.ctx, "query result discarded", "key", e.key, "reason", reason)
	e.stale = true
	if e.status == StatusLoading {
		if e.data != nil {
			e.status = StatusSuccess
		} else {
			e.status = StatusIdle
		}
	}
	s.notifyLocked(e)
}

// release detaches sub from its entry. The last subscriber moves the entry
// into retention, or destroys it when retention is off.
func (s *Store) release(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := sub.entry
	if e == nil {
		return
	}
	delete(e.subs, sub)
	if len(e.subs) > 0 || s.live[e.key] != e {
		return
	}

	delete(s.live, e.key)
	s.metrics.SetLiveEntries(len(s.live))
	if e.inflight {
		s.group.Forget(string(e.key))
	}
	if s.retained != nil && !s.closed {
		s.retained.Add(e.key, e)
		return
	}
	s.log.Debug(s.ctx, "cache entry destroyed", "key", e.key)
}

func (s *Store) refetch(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := sub.entry
	if s.closed || e == nil || s.live[e.key] != e {
		return
	}
	if e.inflight {
		if e.inflightGen < e.generation {
			e.refetch = true
		}
		return
	}
	s.startLocked(e)
}

func (s *Store) snapshotLocked(e *entry) Snapshot {
	return Snapshot{
		Key:       e.key,
		Status:    e.status,
		Data:      e.data,
		Err:       e.err,
		Stale:     e.stale,
		Version:   e.version,
		UpdatedAt: e.updatedAt,
	}
}

func (s *Store) notifyLocked(e *entry) {
	for sub := range e.subs {
		sub.signal()
	}
}
