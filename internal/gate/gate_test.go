package gate

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/domain"
	"github.com/jafarshop/exactsync/pkg/errors"
)

// fakeStore is an in-memory ReservationStore enforcing the same
// uniqueness the real table does
type fakeStore struct {
	mu       sync.Mutex
	byID     map[int64]*domain.OrderReservation
	byNumber map[int64]*domain.OrderReservation
	calls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:     make(map[int64]*domain.OrderReservation),
		byNumber: make(map[int64]*domain.OrderReservation),
	}
}

func (s *fakeStore) GetByOrderID(ctx context.Context, orderID int64) (*domain.OrderReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if res, ok := s.byID[orderID]; ok {
		return res, nil
	}
	return nil, &errors.ErrNotFound{Resource: "reservation", ID: "order"}
}

func (s *fakeStore) GetByOrderNumber(ctx context.Context, orderNumber int64) (*domain.OrderReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if res, ok := s.byNumber[orderNumber]; ok {
		return res, nil
	}
	return nil, &errors.ErrNotFound{Resource: "reservation", ID: "order"}
}

func (s *fakeStore) Create(ctx context.Context, res *domain.OrderReservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if _, ok := s.byID[res.OrderID]; ok {
		return &errors.ErrDuplicateOrder{OrderID: res.OrderID}
	}
	if _, ok := s.byNumber[res.OrderNumber]; ok {
		return &errors.ErrDuplicateOrder{OrderID: res.OrderID}
	}
	s.byID[res.OrderID] = res
	s.byNumber[res.OrderNumber] = res
	return nil
}

func (s *fakeStore) SetExactOrder(ctx context.Context, orderID int64, exactOrderID uuid.UUID, exactOrderNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	res, ok := s.byID[orderID]
	if !ok {
		return &errors.ErrNotFound{Resource: "reservation", ID: "order"}
	}
	res.ExactOrderID = &exactOrderID
	res.ExactOrderNumber = &exactOrderNumber
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if res, ok := s.byID[orderID]; ok {
		delete(s.byNumber, res.OrderNumber)
		delete(s.byID, orderID)
	}
	return nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeStore) resetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = 0
}

func (s *fakeStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// blindStore reports every lookup as a miss while keeping the insert
// uniqueness, reproducing the time-of-check/time-of-use race window
type blindStore struct {
	*fakeStore
}

func (s *blindStore) GetByOrderID(ctx context.Context, orderID int64) (*domain.OrderReservation, error) {
	return nil, &errors.ErrNotFound{Resource: "reservation", ID: "order"}
}

func (s *blindStore) GetByOrderNumber(ctx context.Context, orderNumber int64) (*domain.OrderReservation, error) {
	return nil, &errors.ErrNotFound{Resource: "reservation", ID: "order"}
}

func newTestGate(t *testing.T) (*Gate, *MemoryCache, *fakeStore) {
	t.Helper()
	cache := NewMemoryCache()
	t.Cleanup(func() { cache.Close() })
	store := newFakeStore()
	return NewGate(cache, store, zap.NewNop()), cache, store
}

func TestGate_TryReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("first delivery proceeds", func(t *testing.T) {
		g, _, store := newTestGate(t)

		outcome, err := g.TryReserve(ctx, 1001, 1001)
		require.NoError(t, err)
		assert.Equal(t, Proceed, outcome)
		assert.Equal(t, 1, store.size())
	})

	t.Run("second delivery short-circuits at the lock cache", func(t *testing.T) {
		g, _, store := newTestGate(t)

		outcome, err := g.TryReserve(ctx, 1002, 1002)
		require.NoError(t, err)
		require.Equal(t, Proceed, outcome)

		store.resetCalls()

		outcome, err = g.TryReserve(ctx, 1002, 1002)
		require.NoError(t, err)
		assert.Equal(t, AlreadyHandled, outcome)
		assert.Equal(t, 0, store.callCount(), "duplicate within the lock TTL must not touch the store")
	})

	t.Run("durable record survives a cache wipe", func(t *testing.T) {
		g, _, store := newTestGate(t)

		outcome, err := g.TryReserve(ctx, 1003, 1003)
		require.NoError(t, err)
		require.Equal(t, Proceed, outcome)

		// A restart empties the cache but not the store.
		freshCache := NewMemoryCache()
		defer freshCache.Close()
		restarted := NewGate(freshCache, store, zap.NewNop())

		outcome, err = restarted.TryReserve(ctx, 1003, 1003)
		require.NoError(t, err)
		assert.Equal(t, AlreadyHandled, outcome)

		// The seen cache was repopulated by the durable hit.
		hit, err := freshCache.Exists(ctx, seenKey(1003))
		require.NoError(t, err)
		assert.True(t, hit)
	})

	t.Run("order number match catches identifier drift", func(t *testing.T) {
		g, _, _ := newTestGate(t)

		outcome, err := g.TryReserve(ctx, 1004, 555)
		require.NoError(t, err)
		require.Equal(t, Proceed, outcome)

		// Same order number under a different id.
		outcome, err = g.TryReserve(ctx, 9999, 555)
		require.NoError(t, err)
		assert.Equal(t, AlreadyHandled, outcome)
	})

	t.Run("insert race is absorbed as duplicate", func(t *testing.T) {
		cache := NewMemoryCache()
		t.Cleanup(func() { cache.Close() })

		// The loser of the race passes every lookup, then collides on
		// the insert.
		store := &blindStore{fakeStore: newFakeStore()}
		require.NoError(t, store.fakeStore.Create(ctx, &domain.OrderReservation{OrderID: 1005, OrderNumber: 1005}))

		g := NewGate(cache, store, zap.NewNop())

		outcome, err := g.TryReserve(ctx, 1005, 1005)
		require.NoError(t, err)
		assert.Equal(t, AlreadyHandled, outcome)
	})
}

func TestGate_ConcurrentReserve(t *testing.T) {
	// N concurrent deliveries of the same order: exactly one proceeds
	// and the store ends up with exactly one record.
	g, _, store := newTestGate(t)
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	outcomes := make([]Outcome, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := g.TryReserve(ctx, 2001, 2001)
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	proceeded := 0
	for _, outcome := range outcomes {
		if outcome == Proceed {
			proceeded++
		}
	}

	assert.Equal(t, 1, proceeded, "exactly one delivery may proceed")
	assert.Equal(t, 1, store.size())
}

func TestGate_Commit(t *testing.T) {
	g, cache, store := newTestGate(t)
	ctx := context.Background()

	outcome, err := g.TryReserve(ctx, 3001, 3001)
	require.NoError(t, err)
	require.Equal(t, Proceed, outcome)

	exactID := uuid.New()
	require.NoError(t, g.Commit(ctx, 3001, exactID, "SO-42"))

	res, err := store.GetByOrderID(ctx, 3001)
	require.NoError(t, err)
	require.NotNil(t, res.ExactOrderID)
	assert.Equal(t, exactID, *res.ExactOrderID)
	require.NotNil(t, res.ExactOrderNumber)
	assert.Equal(t, "SO-42", *res.ExactOrderNumber)

	// The in-flight lock is released; the seen entry remains.
	locked, err := cache.Exists(ctx, lockKey(3001))
	require.NoError(t, err)
	assert.False(t, locked)

	seen, err := cache.Exists(ctx, seenKey(3001))
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestGate_Compensate(t *testing.T) {
	g, cache, store := newTestGate(t)
	ctx := context.Background()

	outcome, err := g.TryReserve(ctx, 4001, 4001)
	require.NoError(t, err)
	require.Equal(t, Proceed, outcome)

	require.NoError(t, g.Compensate(ctx, 4001))

	assert.Equal(t, 0, store.size())

	locked, err := cache.Exists(ctx, lockKey(4001))
	require.NoError(t, err)
	assert.False(t, locked)

	// A redelivery after compensation is treated as new.
	outcome, err = g.TryReserve(ctx, 4001, 4001)
	require.NoError(t, err)
	assert.Equal(t, Proceed, outcome)
}
