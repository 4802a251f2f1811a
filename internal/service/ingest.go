package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/domain"
	"github.com/jafarshop/exactsync/internal/gate"
	"github.com/jafarshop/exactsync/pkg/errors"
)

// CounterpartyResolver is the ERP collaborator contract for customers,
// catalog items and sales order submission
type CounterpartyResolver interface {
	ResolveOrCreateCustomer(ctx context.Context, customer *domain.OrderCustomer) (uuid.UUID, error)
	ResolveOrCreateItem(ctx context.Context, sku string) (*domain.ItemInfo, error)
	SubmitSalesOrder(ctx context.Context, order *domain.SalesOrder) (*domain.SubmitResult, error)
}

// ReservationGate guards against duplicate submission of the same order
type ReservationGate interface {
	TryReserve(ctx context.Context, orderID, orderNumber int64) (gate.Outcome, error)
	Commit(ctx context.Context, orderID int64, exactOrderID uuid.UUID, exactOrderNumber string) error
	Compensate(ctx context.Context, orderID int64) error
}

// FailureLogger records failed submissions for operational follow-up
type FailureLogger interface {
	Write(orderID int64, orderNumber int64, message string) error
}

// IngestResult is what the webhook handler turns into an HTTP status
type IngestResult int

const (
	// ResultSubmitted means the order was submitted to the ERP
	ResultSubmitted IngestResult = iota
	// ResultDuplicate means the delivery was absorbed as a duplicate
	ResultDuplicate
	// ResultFailed means the submission failed and was compensated
	ResultFailed
)

// IngestService is the top-level webhook pipeline: reserve, resolve,
// compute discounts, reconcile addresses, compose, submit.
type IngestService struct {
	gate       ReservationGate
	resolver   CounterpartyResolver
	reconciler *Reconciler
	composer   *Composer
	failures   FailureLogger
	logger     *zap.Logger

	shippingItemCode string
}

// NewIngestService creates the order ingestion pipeline
func NewIngestService(
	reservations ReservationGate,
	resolver CounterpartyResolver,
	reconciler *Reconciler,
	composer *Composer,
	failures FailureLogger,
	shippingItemCode string,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		gate:             reservations,
		resolver:         resolver,
		reconciler:       reconciler,
		composer:         composer,
		failures:         failures,
		shippingItemCode: shippingItemCode,
		logger:           logger,
	}
}

// IngestOrder runs the pipeline for one webhook delivery. Duplicate
// deliveries and reservation errors are absorbed silently; everything
// after a successful reservation is compensated on failure so a later
// redelivery can retry.
func (s *IngestService) IngestOrder(ctx context.Context, order *domain.WebhookOrder) (IngestResult, error) {
	outcome, err := s.gate.TryReserve(ctx, order.ID, order.OrderNumber)
	if err != nil {
		// Fail closed: an unreadable gate must not cause a retry storm
		// from the storefront, nor a double submission.
		s.logger.Error("Reservation failed, absorbing delivery",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
		return ResultDuplicate, nil
	}
	if outcome == gate.AlreadyHandled {
		return ResultDuplicate, nil
	}

	result, err := s.process(ctx, order)
	if err != nil {
		return s.fail(ctx, order, err)
	}

	if err := s.gate.Commit(ctx, order.ID, result.OrderID, result.OrderNumber); err != nil {
		// The ERP accepted the order: compensating now would allow a
		// redelivery to submit it twice. Keep the reservation.
		s.logger.Error("Failed to commit reservation after submission",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Order submitted to ERP",
		zap.Int64("order_id", order.ID),
		zap.Int64("order_number", order.OrderNumber),
		zap.String("exact_order_id", result.OrderID.String()),
		zap.String("exact_order_number", result.OrderNumber),
	)
	return ResultSubmitted, nil
}

func (s *IngestService) process(ctx context.Context, order *domain.WebhookOrder) (*domain.SubmitResult, error) {
	customerRef := ""
	if order.Customer != nil {
		customerRef = order.Customer.Email
	}

	customerID, err := s.resolver.ResolveOrCreateCustomer(ctx, order.Customer)
	if err != nil {
		return nil, &errors.ErrCustomerResolution{CustomerRef: customerRef, Cause: err}
	}

	discounts := ComputeDiscounts(order)

	lines, err := s.resolveLines(ctx, order, discounts)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &errors.ErrNoOrderLines{OrderNumber: order.Name}
	}

	var shippingItem *domain.ItemInfo
	if !IsPickupOrder(order) {
		shippingItem, err = s.resolver.ResolveOrCreateItem(ctx, s.shippingItemCode)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve shipping item: %w", err)
		}
	}

	// Address issues never block the order; whatever address state
	// exists in the ERP is used.
	if err := s.reconciler.Reconcile(ctx, customerID, order); err != nil {
		s.logger.Warn("Address reconciliation failed, continuing",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}

	salesOrder := s.composer.Compose(order, customerID, lines, shippingItem, discounts)

	result, err := s.resolver.SubmitSalesOrder(ctx, salesOrder)
	if err != nil {
		return nil, &errors.ErrSubmissionFailed{OrderNumber: order.Name, Cause: err}
	}

	return result, nil
}

// resolveLines resolves each line item's ERP catalog entry. Lines
// without a SKU are skipped with a warning; a resolution error aborts
// the whole submission so a partial order is never sent.
func (s *IngestService) resolveLines(ctx context.Context, order *domain.WebhookOrder, discounts *DiscountResult) ([]ResolvedLine, error) {
	var lines []ResolvedLine

	for i, lineItem := range order.LineItems {
		if lineItem.SKU == "" {
			s.logger.Warn("Skipping line item without SKU",
				zap.Int64("order_id", order.ID),
				zap.String("title", lineItem.Title),
			)
			continue
		}

		item, err := s.resolver.ResolveOrCreateItem(ctx, lineItem.SKU)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve item %q: %w", lineItem.SKU, err)
		}

		lines = append(lines, ResolvedLine{
			Line:     lineItem,
			Item:     item,
			Discount: discounts.Lines[i],
		})
	}

	return lines, nil
}

// fail writes the failure log and compensates the reservation. The
// compensating delete completes before the handler returns, closing the
// window where a redelivery could race an un-deleted reservation.
func (s *IngestService) fail(ctx context.Context, order *domain.WebhookOrder, cause error) (IngestResult, error) {
	s.logger.Error("Order ingestion failed",
		zap.Int64("order_id", order.ID),
		zap.Int64("order_number", order.OrderNumber),
		zap.Error(cause),
	)

	if err := s.failures.Write(order.ID, order.OrderNumber, cause.Error()); err != nil {
		s.logger.Warn("Failed to write failure log", zap.Error(err))
	}

	if err := s.gate.Compensate(ctx, order.ID); err != nil {
		s.logger.Error("Failed to compensate reservation",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}

	return ResultFailed, cause
}
