package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/exactsync/internal/domain"
)

// ReservationRepository persists order reservations. It is the
// authoritative tier of the duplicate-suppression gate.
type ReservationRepository interface {
	GetByOrderID(ctx context.Context, orderID int64) (*domain.OrderReservation, error)
	GetByOrderNumber(ctx context.Context, orderNumber int64) (*domain.OrderReservation, error)
	Create(ctx context.Context, res *domain.OrderReservation) error
	SetExactOrder(ctx context.Context, orderID int64, exactOrderID uuid.UUID, exactOrderNumber string) error
	Delete(ctx context.Context, orderID int64) error
	ListRecent(ctx context.Context, limit int) ([]*domain.OrderReservation, error)
}

// AdminKeyRepository stores hashed API keys for the admin endpoints
type AdminKeyRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.AdminKey, error)
	Create(ctx context.Context, key *domain.AdminKey) error
}

// Repositories bundles all repositories for injection
type Repositories struct {
	Reservation ReservationRepository
	AdminKey    AdminKeyRepository
}
