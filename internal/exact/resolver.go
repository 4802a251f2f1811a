package exact

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/domain"
)

const dateFormat = "2006-01-02T15:04:05"

// Resolver maps storefront customers and catalog items to ERP records,
// creating them when missing, and submits composed sales orders.
type Resolver struct {
	client *Client
	logger *zap.Logger
}

// NewResolver creates a new counterparty resolver
func NewResolver(client *Client, logger *zap.Logger) *Resolver {
	return &Resolver{
		client: client,
		logger: logger,
	}
}

type accountResult struct {
	ID   string `json:"ID"`
	Name string `json:"Name"`
}

// ResolveOrCreateCustomer finds the ERP account for a storefront customer
// by email, creating one if none exists
func (r *Resolver) ResolveOrCreateCustomer(ctx context.Context, customer *domain.OrderCustomer) (uuid.UUID, error) {
	if customer == nil || customer.Email == "" {
		return uuid.Nil, fmt.Errorf("order has no customer email")
	}

	var results []accountResult
	filter := fmt.Sprintf("Email eq '%s'", escapeODataString(customer.Email))
	if err := r.client.Get(ctx, "crm/Accounts", filter, "ID,Name", &results); err != nil {
		return uuid.Nil, err
	}

	if len(results) > 0 {
		id, err := uuid.Parse(results[0].ID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid account GUID %q: %w", results[0].ID, err)
		}
		return id, nil
	}

	// No match, create the account.
	name := strings.TrimSpace(customer.FirstName + " " + customer.LastName)
	if name == "" {
		name = customer.Email
	}

	payload := map[string]interface{}{
		"Name":   name,
		"Email":  customer.Email,
		"Status": "C", // customer
	}
	if customer.Phone != "" {
		payload["Phone"] = customer.Phone
	}

	var created accountResult
	if err := r.client.Post(ctx, "crm/Accounts", payload, &created); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(created.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid created account GUID %q: %w", created.ID, err)
	}

	r.logger.Info("Created ERP account",
		zap.String("account_id", id.String()),
		zap.String("email", customer.Email),
	)
	return id, nil
}

type itemResult struct {
	ID                 string   `json:"ID"`
	Code               string   `json:"Code"`
	Description        string   `json:"Description"`
	Unit               string   `json:"Unit"`
	SalesVatCodePerc   *float64 `json:"SalesVatCodePercentage"`
	StandardSalesPrice float64  `json:"StandardSalesPrice"`
}

// ResolveOrCreateItem finds the ERP catalog item for a SKU, creating a
// minimal item if none exists
func (r *Resolver) ResolveOrCreateItem(ctx context.Context, sku string) (*domain.ItemInfo, error) {
	if sku == "" {
		return nil, fmt.Errorf("empty SKU")
	}

	var results []itemResult
	filter := fmt.Sprintf("Code eq '%s'", escapeODataString(sku))
	sel := "ID,Code,Description,Unit,SalesVatCodePercentage,StandardSalesPrice"
	if err := r.client.Get(ctx, "logistics/Items", filter, sel, &results); err != nil {
		return nil, err
	}

	if len(results) > 0 {
		return itemInfoFromResult(&results[0])
	}

	payload := map[string]interface{}{
		"Code":        sku,
		"Description": sku,
		"IsSalesItem": true,
	}

	var created itemResult
	if err := r.client.Post(ctx, "logistics/Items", payload, &created); err != nil {
		return nil, err
	}

	r.logger.Info("Created ERP item", zap.String("sku", sku))
	return itemInfoFromResult(&created)
}

func itemInfoFromResult(res *itemResult) (*domain.ItemInfo, error) {
	id, err := uuid.Parse(res.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid item GUID %q: %w", res.ID, err)
	}

	info := &domain.ItemInfo{
		ID:                 id,
		Code:               res.Code,
		Description:        res.Description,
		UnitCode:           res.Unit,
		StandardSalesPrice: decimal.NewFromFloat(res.StandardSalesPrice),
	}
	if res.SalesVatCodePerc != nil {
		vat := decimal.NewFromFloat(*res.SalesVatCodePerc)
		info.VATPercentage = &vat
	}

	return info, nil
}

// salesOrderPayload is the ERP wire representation of a composed order
type salesOrderPayload struct {
	OrderedBy             string                  `json:"OrderedBy"`
	DeliverTo             string                  `json:"DeliverTo"`
	InvoiceTo             string                  `json:"InvoiceTo"`
	OrderDate             string                  `json:"OrderDate"`
	DeliveryDate          string                  `json:"DeliveryDate"`
	Description           string                  `json:"Description,omitempty"`
	Currency              string                  `json:"Currency"`
	Status                int                     `json:"Status"`
	WarehouseID           *string                 `json:"WarehouseID,omitempty"`
	Salesperson           *string                 `json:"Salesperson,omitempty"`
	ShippingMethod        *string                 `json:"ShippingMethod,omitempty"`
	YourRef               *string                 `json:"YourRef,omitempty"`
	AmountDC              float64                 `json:"AmountDC"`
	AmountFC              float64                 `json:"AmountFC"`
	AmountFCExclVat       float64                 `json:"AmountFCExclVat"`
	AmountDiscount        float64                 `json:"AmountDiscount"`
	AmountDiscountExclVat float64                 `json:"AmountDiscountExclVat"`
	SalesOrderLines       []salesOrderLinePayload `json:"SalesOrderLines"`
}

type salesOrderLinePayload struct {
	Item          string  `json:"Item"`
	Description   string  `json:"Description,omitempty"`
	Quantity      float64 `json:"Quantity"`
	UnitPrice     float64 `json:"UnitPrice"`
	NetPrice      float64 `json:"NetPrice"`
	Discount      float64 `json:"Discount"`
	VATPercentage float64 `json:"VATPercentage"`
	UnitCode      string  `json:"UnitCode,omitempty"`
	DeliveryDate  string  `json:"DeliveryDate"`
}

type salesOrderResult struct {
	OrderID     string `json:"OrderID"`
	OrderNumber int64  `json:"OrderNumber"`
}

// SubmitSalesOrder posts the composed order to the ERP and returns the
// assigned order identifiers
func (r *Resolver) SubmitSalesOrder(ctx context.Context, order *domain.SalesOrder) (*domain.SubmitResult, error) {
	payload := salesOrderPayload{
		OrderedBy:             order.OrderedBy.String(),
		DeliverTo:             order.DeliverTo.String(),
		InvoiceTo:             order.InvoiceTo.String(),
		OrderDate:             order.OrderDate.Format(dateFormat),
		DeliveryDate:          order.DeliveryDate.Format(dateFormat),
		Description:           order.Description,
		Currency:              order.Currency,
		Status:                order.Status,
		YourRef:               order.YourRef,
		AmountDC:              order.AmountDC.InexactFloat64(),
		AmountFC:              order.AmountFC.InexactFloat64(),
		AmountFCExclVat:       order.AmountFCExclVat.InexactFloat64(),
		AmountDiscount:        order.AmountDiscount.InexactFloat64(),
		AmountDiscountExclVat: order.AmountDiscountExclVat.InexactFloat64(),
	}

	if order.WarehouseID != nil {
		s := order.WarehouseID.String()
		payload.WarehouseID = &s
	}
	if order.SalespersonID != nil {
		s := order.SalespersonID.String()
		payload.Salesperson = &s
	}
	if order.ShippingMethodID != nil {
		s := order.ShippingMethodID.String()
		payload.ShippingMethod = &s
	}

	for _, line := range order.Lines {
		payload.SalesOrderLines = append(payload.SalesOrderLines, salesOrderLinePayload{
			Item:          line.ItemID.String(),
			Description:   line.Description,
			Quantity:      line.Quantity.InexactFloat64(),
			UnitPrice:     line.UnitPrice.InexactFloat64(),
			NetPrice:      line.NetPrice.InexactFloat64(),
			Discount:      line.Discount.InexactFloat64(),
			VATPercentage: line.VATPercentage.InexactFloat64(),
			UnitCode:      line.UnitCode,
			DeliveryDate:  line.DeliveryDate.Format(dateFormat),
		})
	}

	var created salesOrderResult
	if err := r.client.Post(ctx, "salesorder/SalesOrders", payload, &created); err != nil {
		return nil, err
	}

	orderID, err := uuid.Parse(created.OrderID)
	if err != nil {
		return nil, fmt.Errorf("invalid sales order GUID %q: %w", created.OrderID, err)
	}

	return &domain.SubmitResult{
		OrderID:     orderID,
		OrderNumber: fmt.Sprintf("%d", created.OrderNumber),
	}, nil
}

// escapeODataString doubles single quotes for OData string literals
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
