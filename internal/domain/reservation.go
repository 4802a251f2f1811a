package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderReservation is the durable record claiming a storefront order for
// processing. It is created in pending shape (ERP fields nil) before any
// ERP call, filled in on commit, and deleted on compensation so a later
// redelivery can retry from scratch.
type OrderReservation struct {
	OrderID          int64
	OrderNumber      int64
	ProcessedAt      time.Time
	ExactOrderID     *uuid.UUID
	ExactOrderNumber *string
}

// AdminKey is an API key for the internal admin endpoints
type AdminKey struct {
	ID         uuid.UUID
	Name       string
	APIKeyHash string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
