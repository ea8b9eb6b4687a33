package interview

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store is the session persistence contract. Entries expire on the store's
// own TTL schedule; the state machine never evicts proactively. An expired
// entry is reported as absent.
type Store interface {
	Get(id string) (*Session, bool)
	Put(id string, sess *Session)
	// Lock acquires the per-session mutex for id. Callers hold it across a
	// full submit/answer turn so concurrent submissions for the same
	// session cannot interleave. The returned func releases the lock.
	Lock(id string) func()
}

// MemoryStore keeps sessions in an in-process TTL cache. Each interview kind
// gets its own store instance, so first-visit and follow-up session ids
// never collide.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Session]
	locks sync.Map // session id -> *sync.Mutex
}

const defaultMaxInterviews = 4096

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: expirable.NewLRU[string, *Session](defaultMaxInterviews, nil, ttl),
	}
}

func (s *MemoryStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Get(id)
}

func (s *MemoryStore) Put(id string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(id, sess)
}

// Lock serializes turns per session id. Lock entries are never reclaimed;
// they are two words each and bounded by the number of distinct session ids
// seen by this process.
func (s *MemoryStore) Lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
