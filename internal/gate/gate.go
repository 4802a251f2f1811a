package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/domain"
	"github.com/jafarshop/exactsync/pkg/errors"
)

// Outcome of a reservation attempt
type Outcome int

const (
	// Proceed means this caller owns the order and may submit it to the ERP
	Proceed Outcome = iota
	// AlreadyHandled means the order is in flight or already committed;
	// the caller must not submit and should answer the webhook with a
	// silent 200.
	AlreadyHandled
)

// Lock entries cover in-flight processing; seen entries cover committed
// orders. The lock TTL is the safety net against a crash that never
// reaches Commit or Compensate.
const (
	lockTTL = 5 * time.Minute
	seenTTL = 2 * time.Hour
)

// ReservationStore is the durable tier of the gate. Create must enforce
// uniqueness on both the order id and the order number and return
// *errors.ErrDuplicateOrder when either is violated.
type ReservationStore interface {
	GetByOrderID(ctx context.Context, orderID int64) (*domain.OrderReservation, error)
	GetByOrderNumber(ctx context.Context, orderNumber int64) (*domain.OrderReservation, error)
	Create(ctx context.Context, res *domain.OrderReservation) error
	SetExactOrder(ctx context.Context, orderID int64, exactOrderID uuid.UUID, exactOrderNumber string) error
	Delete(ctx context.Context, orderID int64) error
}

// Gate guarantees at most one in-flight ERP submission per storefront
// order. The cache is checked first as a fast path, but the durable store
// decides: two attempts racing past the cache are resolved by the store's
// uniqueness constraint, not by application-level locking.
type Gate struct {
	cache  TTLCache
	store  ReservationStore
	logger *zap.Logger
}

// NewGate creates a reservation gate
func NewGate(cache TTLCache, store ReservationStore, logger *zap.Logger) *Gate {
	return &Gate{
		cache:  cache,
		store:  store,
		logger: logger,
	}
}

func lockKey(orderID int64) string {
	return fmt.Sprintf("order:lock:%d", orderID)
}

func seenKey(orderID int64) string {
	return fmt.Sprintf("order:seen:%d", orderID)
}

// TryReserve claims the order for processing. The checks run in strict
// order and short-circuit on the first hit: lock cache, seen cache,
// durable lookup by order id, durable lookup by order number. Only when
// all miss is a pending reservation inserted and Proceed returned.
func (g *Gate) TryReserve(ctx context.Context, orderID, orderNumber int64) (Outcome, error) {
	// 1. Another request is currently processing this order.
	if hit := g.cacheExists(ctx, lockKey(orderID)); hit {
		g.logger.Info("Order is already being processed", zap.Int64("order_id", orderID))
		return AlreadyHandled, nil
	}

	// 2. Already fully committed.
	if hit := g.cacheExists(ctx, seenKey(orderID)); hit {
		g.logger.Info("Order was already processed", zap.Int64("order_id", orderID))
		return AlreadyHandled, nil
	}

	// 3. Durable check by order id. The cache is only a fast path: a
	// restart empties it, so this lookup is mandatory.
	existing, err := g.store.GetByOrderID(ctx, orderID)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); !ok {
			return AlreadyHandled, err
		}
	}
	if existing != nil {
		g.cacheSet(ctx, seenKey(orderID), seenTTL)
		return AlreadyHandled, nil
	}

	// 4. Durable check by order number, in case the storefront re-sends
	// the same order under a drifted id.
	byNumber, err := g.store.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); !ok {
			return AlreadyHandled, err
		}
	}
	if byNumber != nil {
		return AlreadyHandled, nil
	}

	// 5. Claim the order. Two workers can both reach this point; the
	// store's uniqueness constraint picks the winner.
	res := &domain.OrderReservation{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		ProcessedAt: time.Now(),
	}
	if err := g.store.Create(ctx, res); err != nil {
		if _, ok := err.(*errors.ErrDuplicateOrder); ok {
			g.logger.Info("Lost reservation race, treating as duplicate",
				zap.Int64("order_id", orderID),
			)
			return AlreadyHandled, nil
		}
		return AlreadyHandled, err
	}

	g.cacheSet(ctx, seenKey(orderID), seenTTL)
	g.cacheSet(ctx, lockKey(orderID), lockTTL)

	return Proceed, nil
}

// Commit records the ERP order identifiers on the reservation and
// releases the in-flight lock
func (g *Gate) Commit(ctx context.Context, orderID int64, exactOrderID uuid.UUID, exactOrderNumber string) error {
	if err := g.store.SetExactOrder(ctx, orderID, exactOrderID, exactOrderNumber); err != nil {
		// The lock must still be released, otherwise the order is
		// stranded for the rest of the lock TTL.
		g.cacheDelete(ctx, lockKey(orderID))
		return err
	}

	g.cacheDelete(ctx, lockKey(orderID))
	return nil
}

// Compensate removes the reservation and both cache entries so a later
// redelivery of the same order is treated as new
func (g *Gate) Compensate(ctx context.Context, orderID int64) error {
	err := g.store.Delete(ctx, orderID)

	g.cacheDelete(ctx, seenKey(orderID))
	g.cacheDelete(ctx, lockKey(orderID))

	return err
}

// cacheExists swallows cache errors: a broken cache degrades to the
// durable check instead of failing the request
func (g *Gate) cacheExists(ctx context.Context, key string) bool {
	hit, err := g.cache.Exists(ctx, key)
	if err != nil {
		g.logger.Warn("Reservation cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (g *Gate) cacheSet(ctx context.Context, key string, ttl time.Duration) {
	if err := g.cache.Set(ctx, key, ttl); err != nil {
		g.logger.Warn("Reservation cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (g *Gate) cacheDelete(ctx context.Context, key string) {
	if err := g.cache.Delete(ctx, key); err != nil {
		g.logger.Warn("Reservation cache delete failed", zap.String("key", key), zap.Error(err))
	}
}
