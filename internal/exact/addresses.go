package exact

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/domain"
)

// AddressClient implements the ERP address operations used by the
// address reconciler
type AddressClient struct {
	client *Client
	logger *zap.Logger
}

// NewAddressClient creates a new address client
func NewAddressClient(client *Client, logger *zap.Logger) *AddressClient {
	return &AddressClient{
		client: client,
		logger: logger,
	}
}

type addressResult struct {
	ID           string `json:"ID"`
	Account      string `json:"Account"`
	AccountName  string `json:"AccountName"`
	Type         int    `json:"Type"`
	AddressLine1 string `json:"AddressLine1"`
	AddressLine2 string `json:"AddressLine2"`
	City         string `json:"City"`
	Postcode     string `json:"Postcode"`
	Country      string `json:"Country"`
	Main         bool   `json:"Main"`
}

// ListAddresses returns the ERP addresses of the given type for an account
func (a *AddressClient) ListAddresses(ctx context.Context, accountID uuid.UUID, addrType int) ([]domain.ExactAddress, error) {
	var results []addressResult
	filter := fmt.Sprintf("Account eq guid'%s' and Type eq %d", accountID.String(), addrType)
	sel := "ID,Account,AccountName,Type,AddressLine1,AddressLine2,City,Postcode,Country,Main"
	if err := a.client.Get(ctx, "crm/Addresses", filter, sel, &results); err != nil {
		return nil, err
	}

	addresses := make([]domain.ExactAddress, 0, len(results))
	for _, res := range results {
		addr, err := addressFromResult(&res)
		if err != nil {
			a.logger.Warn("Skipping malformed address record", zap.Error(err))
			continue
		}
		addresses = append(addresses, *addr)
	}

	return addresses, nil
}

// CreateAddress creates a new ERP address record
func (a *AddressClient) CreateAddress(ctx context.Context, addr *domain.ExactAddress) (*domain.ExactAddress, error) {
	payload := map[string]interface{}{
		"Account":      addr.Account.String(),
		"Type":         addr.Type,
		"AddressLine1": addr.AddressLine1,
		"AddressLine2": addr.AddressLine2,
		"City":         addr.City,
		"Postcode":     addr.PostalCode,
		"Country":      addr.Country,
		"Main":         addr.Main,
	}
	if addr.AccountName != "" {
		payload["AccountName"] = addr.AccountName
	}

	var created addressResult
	if err := a.client.Post(ctx, "crm/Addresses", payload, &created); err != nil {
		return nil, err
	}

	return addressFromResult(&created)
}

// UpdateAddress updates an existing ERP address record
func (a *AddressClient) UpdateAddress(ctx context.Context, addressID uuid.UUID, addr *domain.ExactAddress) error {
	payload := map[string]interface{}{
		"AddressLine1": addr.AddressLine1,
		"AddressLine2": addr.AddressLine2,
		"City":         addr.City,
		"Postcode":     addr.PostalCode,
		"Country":      addr.Country,
		"Main":         addr.Main,
	}

	return a.client.Put(ctx, "crm/Addresses", addressID.String(), payload)
}

func addressFromResult(res *addressResult) (*domain.ExactAddress, error) {
	id, err := uuid.Parse(res.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid address GUID %q: %w", res.ID, err)
	}
	account, err := uuid.Parse(res.Account)
	if err != nil {
		return nil, fmt.Errorf("invalid account GUID %q: %w", res.Account, err)
	}

	return &domain.ExactAddress{
		ID:           id,
		Account:      account,
		AccountName:  res.AccountName,
		Type:         res.Type,
		AddressLine1: res.AddressLine1,
		AddressLine2: res.AddressLine2,
		City:         res.City,
		PostalCode:   res.Postcode,
		Country:      res.Country,
		Main:         res.Main,
	}, nil
}
