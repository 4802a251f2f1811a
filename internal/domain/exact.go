package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ERP address type codes
const (
	AddressTypeBilling  = 3
	AddressTypeDelivery = 4
)

// SalesOrder is the composed ERP sales order. It is a transient value
// object: built once per webhook delivery and discarded after submission.
type SalesOrder struct {
	OrderedBy             uuid.UUID
	DeliverTo             uuid.UUID
	InvoiceTo             uuid.UUID
	OrderDate             time.Time
	DeliveryDate          time.Time
	Description           string
	Currency              string
	Status                int
	Division              int
	WarehouseID           *uuid.UUID
	SalespersonID         *uuid.UUID
	ShippingMethodID      *uuid.UUID
	YourRef               *string
	AmountDC              decimal.Decimal
	AmountFC              decimal.Decimal
	AmountFCExclVat       decimal.Decimal
	AmountDiscount        decimal.Decimal
	AmountDiscountExclVat decimal.Decimal
	Lines                 []SalesOrderLine
}

// SalesOrderLine is a single line of a composed sales order. NetPrice is
// the unit price after line-level discounts; the cart-level pickup
// discount is carried on the order header instead.
type SalesOrderLine struct {
	ItemID        uuid.UUID
	Description   string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	NetPrice      decimal.Decimal
	Discount      decimal.Decimal
	VATPercentage decimal.Decimal
	UnitCode      string
	DeliveryDate  time.Time
	Division      int
}

// ItemInfo is the resolved ERP catalog item for a storefront SKU
type ItemInfo struct {
	ID                 uuid.UUID
	Code               string
	Description        string
	UnitCode           string
	VATPercentage      *decimal.Decimal
	StandardSalesPrice decimal.Decimal
}

// ExactAddress is an ERP-side address record
type ExactAddress struct {
	ID           uuid.UUID
	Account      uuid.UUID
	AccountName  string
	Type         int
	AddressLine1 string
	AddressLine2 string
	City         string
	PostalCode   string
	Country      string
	Main         bool
}

// SubmitResult is returned by the ERP after accepting a sales order
type SubmitResult struct {
	OrderID     uuid.UUID
	OrderNumber string
}
