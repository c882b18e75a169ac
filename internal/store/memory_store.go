package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_basket/internal/basket"
	"github.com/google/uuid"
)

const (
	// DefaultSessionTTL is how long an untouched session is kept
	DefaultSessionTTL = 30 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = 30 * time.Second
)

type entry struct {
	mu        sync.Mutex
	session   *basket.Session
	closed    bool
	expiresAt atomic.Int64 // unix nanoseconds
}

// MemoryStore implements SessionStore with in-memory storage
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*entry
	now      func() time.Time

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &MemoryStore{
		ttl:         ttl,
		sessions:    make(map[string]*entry),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// cleanupLoop periodically drops abandoned sessions
func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) expireSessions() {
	s.mu.Lock()
	now := s.now().UnixNano()
	var expired []*entry
	for id, e := range s.sessions {
		if now > e.expiresAt.Load() {
			delete(s.sessions, id)
			expired = append(expired, e)
		}
	}
	s.mu.Unlock()

	for _, e := range expired {
		e.close()
	}
}

func (s *MemoryStore) Create(session *basket.Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	e := &entry{session: session}
	e.expiresAt.Store(s.now().Add(s.ttl).UnixNano())
	s.sessions[id] = e
	return id, nil
}

func (s *MemoryStore) View(id string, fn func(*basket.Session) error) error {
	e, ok := s.lookup(id)
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrSessionNotFound
	}
	return fn(e.session)
}

func (s *MemoryStore) Update(id string, fn func(*basket.Session) error) error {
	e, ok := s.lookup(id)
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrSessionNotFound
	}
	e.expiresAt.Store(s.clock().Add(s.ttl).UnixNano())
	return fn(e.session)
}

func (s *MemoryStore) Finish(id string, fn func(*basket.Session) error) error {
	e, ok := s.lookup(id)
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrSessionNotFound
	}
	if err := fn(e.session); err != nil {
		return err
	}

	e.closed = true
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	e.close()
	return nil
}

// Close stops the background cleanup and waits for it to finish
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}

// lookup treats sessions past their expiry as gone even before cleanup runs.
func (s *MemoryStore) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok || s.now().UnixNano() > e.expiresAt.Load() {
		return nil, false
	}
	return e, true
}

func (s *MemoryStore) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

func (e *entry) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}
