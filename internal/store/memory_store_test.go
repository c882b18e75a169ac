package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_basket/internal/basket"
	"github.com/fjod/go_basket/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *MemoryStore {
	store := NewMemoryStore(time.Minute)
	t.Cleanup(func() { store.Close() })
	return store
}

func setClock(s *MemoryStore, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = func() time.Time { return now }
}

func sessionCount(s *MemoryStore) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func newSession() *basket.Session {
	return basket.NewSession(domain.Package{
		ID:         "pkg-1",
		BasePrice:  decimal.NewFromInt(50),
		ValuePrice: decimal.NewFromInt(40),
		DefaultItems: []domain.PackageItem{
			{Product: domain.Product{ID: "tomato", Price: decimal.NewFromInt(5), IsAvailable: true, CountInStock: 999}, Quantity: 2},
		},
	})
}

func TestMemoryStore_CreateAndView(t *testing.T) {
	store := setupStore(t)

	id, err := store.Create(newSession())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	err = store.View(id, func(s *basket.Session) error {
		assert.Len(t, s.Items(), 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sessionCount(store))
}

func TestMemoryStore_UniqueIDs(t *testing.T) {
	store := setupStore(t)

	a, _ := store.Create(newSession())
	b, _ := store.Create(newSession())
	assert.NotEqual(t, a, b)
}

func TestMemoryStore_UpdatePersistsMutation(t *testing.T) {
	store := setupStore(t)
	id, _ := store.Create(newSession())

	require.NoError(t, store.Update(id, func(s *basket.Session) error {
		s.AdjustQuantity("tomato", 3)
		return nil
	}))

	require.NoError(t, store.View(id, func(s *basket.Session) error {
		assert.Equal(t, 5, s.Items()[0].Quantity)
		return nil
	}))
}

func TestMemoryStore_UpdatePropagatesError(t *testing.T) {
	store := setupStore(t)
	id, _ := store.Create(newSession())
	boom := errors.New("boom")

	err := store.Update(id, func(*basket.Session) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := setupStore(t)
	noop := func(*basket.Session) error { return nil }

	assert.ErrorIs(t, store.View("missing", noop), ErrSessionNotFound)
	assert.ErrorIs(t, store.Update("missing", noop), ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete("missing"), ErrSessionNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := setupStore(t)
	id, _ := store.Create(newSession())

	require.NoError(t, store.Delete(id))

	err := store.View(id, func(*basket.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_ExpiredSessionIsGone(t *testing.T) {
	store := setupStore(t)
	start := time.Now()
	setClock(store, start)
	id, _ := store.Create(newSession())

	setClock(store, start.Add(2*time.Minute))

	err := store.View(id, func(*basket.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	store.expireSessions()
	assert.Equal(t, 0, sessionCount(store))
}

func TestMemoryStore_UpdateRefreshesExpiry(t *testing.T) {
	store := setupStore(t)
	start := time.Now()
	setClock(store, start)
	id, _ := store.Create(newSession())

	setClock(store, start.Add(50*time.Second))
	require.NoError(t, store.Update(id, func(*basket.Session) error { return nil }))

	setClock(store, start.Add(100*time.Second))
	store.expireSessions()

	assert.NoError(t, store.View(id, func(*basket.Session) error { return nil }))
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	store := setupStore(t)
	id, _ := store.Create(newSession())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(id, func(s *basket.Session) error {
				s.AdjustQuantity("tomato", 1)
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, store.View(id, func(s *basket.Session) error {
		assert.Equal(t, 52, s.Items()[0].Quantity)
		return nil
	}))
}

func TestMemoryStore_FinishDiscardsOnSuccess(t *testing.T) {
	store := setupStore(t)
	id, _ := store.Create(newSession())

	calls := 0
	require.NoError(t, store.Finish(id, func(*basket.Session) error {
		calls++
		return nil
	}))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, sessionCount(store))
	assert.ErrorIs(t, store.Finish(id, func(*basket.Session) error { return nil }), ErrSessionNotFound)
}

func TestMemoryStore_FinishKeepsSessionOnError(t *testing.T) {
	store := setupStore(t)
	id, _ := store.Create(newSession())
	boom := errors.New("boom")

	err := store.Finish(id, func(*basket.Session) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, store.View(id, func(*basket.Session) error { return nil }))
}

func TestMemoryStore_ConcurrentFinishRunsOnce(t *testing.T) {
	store := setupStore(t)
	id, _ := store.Create(newSession())

	var mu sync.Mutex
	calls := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Finish(id, func(*basket.Session) error {
				mu.Lock()
				calls++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
}
