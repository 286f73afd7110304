package repository

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/okian/tracksort/pkg/metrics"
)

// Eviction reasons reported to metrics.
const (
	evictCapacity = "capacity"
	evictExpired  = "expired"
)

// MemoryStore is an in-memory Store. Records are kept in least recently used
// order; when the store is full the least recently used record is evicted.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*list.Element // id -> element holding *Record
	order *list.List               // front = most recently used

	capacity      int
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a store and starts its expiry janitor. The
// janitor stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		items:         make(map[string]*list.Element),
		order:         list.New(),
		capacity:      10000,
		ttl:           time.Hour,
		sweepInterval: time.Minute,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ttl > 0 {
		s.startJanitor(ctx)
	}
	metrics.UpdateActiveSessions(0)
	return s
}

func (s *MemoryStore) startJanitor(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Close stops the janitor. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Put implements Store.Put.
func (s *MemoryStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	rec.touch(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[rec.ID]; ok {
		el.Value = rec
		s.order.MoveToFront(el)
		return nil
	}
	if s.capacity > 0 {
		for s.order.Len() >= s.capacity {
			s.removeLocked(s.order.Back())
			metrics.RecordSessionEvicted(evictCapacity)
		}
	}
	s.items[rec.ID] = s.order.PushFront(rec)
	metrics.UpdateActiveSessions(s.order.Len())
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec := el.Value.(*Record)
	if s.expired(rec, now) {
		s.removeLocked(el)
		metrics.RecordSessionEvicted(evictExpired)
		metrics.UpdateActiveSessions(s.order.Len())
		return nil, ErrNotFound
	}
	rec.touch(now)
	s.order.MoveToFront(el)
	return rec, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[id]
	if !ok {
		return false
	}
	s.removeLocked(el)
	metrics.UpdateActiveSessions(s.order.Len())
	return true
}

// Count implements Store.Count.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Sweep removes every expired record and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	// Walk from the least recently used end; stop at the first live record.
	for el := s.order.Back(); el != nil; {
		rec := el.Value.(*Record)
		if !s.expired(rec, now) {
			break
		}
		prev := el.Prev()
		s.removeLocked(el)
		metrics.RecordSessionEvicted(evictExpired)
		removed++
		el = prev
	}
	if removed > 0 {
		metrics.UpdateActiveSessions(s.order.Len())
	}
	return removed
}

func (s *MemoryStore) expired(rec *Record, now time.Time) bool {
	return s.ttl > 0 && now.Sub(rec.TouchedAt()) > s.ttl
}

func (s *MemoryStore) removeLocked(el *list.Element) {
	rec := s.order.Remove(el).(*Record)
	delete(s.items, rec.ID)
}
