package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/domain"
)

// AddressService is the ERP address collaborator contract
type AddressService interface {
	ListAddresses(ctx context.Context, accountID uuid.UUID, addrType int) ([]domain.ExactAddress, error)
	CreateAddress(ctx context.Context, addr *domain.ExactAddress) (*domain.ExactAddress, error)
	UpdateAddress(ctx context.Context, addressID uuid.UUID, addr *domain.ExactAddress) error
}

// Reconciler keeps the ERP address records in line with the addresses on
// an incoming order
type Reconciler struct {
	addresses AddressService
	logger    *zap.Logger
}

// NewReconciler creates a new address reconciler
func NewReconciler(addresses AddressService, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		addresses: addresses,
		logger:    logger,
	}
}

// Reconcile ensures the ERP carries the order's addresses. When billing
// and shipping are identical only the delivery address is resolved;
// when they differ, both are.
func (r *Reconciler) Reconcile(ctx context.Context, customerID uuid.UUID, order *domain.WebhookOrder) error {
	billing := order.BillingAddress
	shipping := order.ShippingAddress

	if shipping == nil {
		shipping = billing
	}
	if shipping == nil {
		return nil // nothing to reconcile
	}

	if billing != nil && !sameAddress(billing, shipping) {
		if err := r.EnsureAddress(ctx, customerID, billing, domain.AddressTypeBilling); err != nil {
			return err
		}
	}

	return r.EnsureAddress(ctx, customerID, shipping, domain.AddressTypeDelivery)
}

// EnsureAddress makes the given storefront address the main ERP address
// of its type: an existing match is flagged main, otherwise a new record
// is created as main.
func (r *Reconciler) EnsureAddress(ctx context.Context, customerID uuid.UUID, addr *domain.OrderAddress, addrType int) error {
	existing, err := r.addresses.ListAddresses(ctx, customerID, addrType)
	if err != nil {
		return err
	}

	incoming := normalizedKey(addr.Address1, addr.Address2, addr.City, addr.Zip, addr.CountryCode)

	for i := range existing {
		rec := &existing[i]
		key := normalizedKey(rec.AddressLine1, rec.AddressLine2, rec.City, rec.PostalCode, rec.Country)
		if key != incoming {
			continue
		}
		if rec.Main {
			return nil // already the main address
		}

		rec.Main = true
		if err := r.addresses.UpdateAddress(ctx, rec.ID, rec); err != nil {
			return err
		}
		r.logger.Info("Flagged existing ERP address as main",
			zap.String("account_id", customerID.String()),
			zap.Int("type", addrType),
		)
		return nil
	}

	accountName := strings.TrimSpace(addr.FirstName + " " + addr.LastName)
	created := &domain.ExactAddress{
		Account:      customerID,
		AccountName:  accountName,
		Type:         addrType,
		AddressLine1: addr.Address1,
		AddressLine2: addr.Address2,
		City:         addr.City,
		PostalCode:   addr.Zip,
		Country:      addr.CountryCode,
		Main:         true,
	}

	if _, err := r.addresses.CreateAddress(ctx, created); err != nil {
		return err
	}

	r.logger.Info("Created ERP address",
		zap.String("account_id", customerID.String()),
		zap.Int("type", addrType),
	)
	return nil
}

// sameAddress compares two storefront addresses field by field,
// case-insensitive and trimmed
func sameAddress(a, b *domain.OrderAddress) bool {
	return norm(a.Address1) == norm(b.Address1) &&
		norm(a.Address2) == norm(b.Address2) &&
		norm(a.City) == norm(b.City) &&
		norm(a.Zip) == norm(b.Zip) &&
		norm(a.CountryCode) == norm(b.CountryCode) &&
		norm(a.FirstName) == norm(b.FirstName) &&
		norm(a.LastName) == norm(b.LastName)
}

func normalizedKey(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = norm(p)
	}
	return strings.Join(normalized, "|")
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
