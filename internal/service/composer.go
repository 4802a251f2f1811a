package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/config"
	"github.com/jafarshop/exactsync/internal/domain"
)

// Note attribute keys written by the storefront checkout
const (
	attrDeliveryType    = "delivery_type"
	attrPickupDate      = "pickup_date"
	attrReferenceNumber = "reference_number"
)

// ERP sales order status: open
const orderStatusOpen = 12

// Shipping line titles that identify a carrier shipment
var carrierMarkers = []string{"Verzendkosten", "Gratis"}

// Default VAT percentage when the resolved item carries no rate
var defaultVATPercentage = decimal.NewFromInt(21)

const pickupDateFormat = "2006-01-02"

// ResolvedLine pairs an incoming line item with its ERP item and
// computed discount
type ResolvedLine struct {
	Line     domain.OrderLineItem
	Item     *domain.ItemInfo
	Discount LineDiscount
}

// Composer assembles the ERP sales order payload from resolved pieces
type Composer struct {
	cfg              config.ExactConfig
	warehouseID      *uuid.UUID
	salespersonID    *uuid.UUID
	pickupMethodID   *uuid.UUID
	carrierMethodID  *uuid.UUID
	fallbackShipping decimal.Decimal
	logger           *zap.Logger
}

// NewComposer creates a new order composer. Malformed GUIDs in the
// configuration degrade to nil ids, which the ERP fills with its own
// defaults.
func NewComposer(cfg config.ExactConfig, logger *zap.Logger) *Composer {
	return &Composer{
		cfg:              cfg,
		warehouseID:      parseOptionalGUID(cfg.WarehouseID),
		salespersonID:    parseOptionalGUID(cfg.SalespersonID),
		pickupMethodID:   parseOptionalGUID(cfg.PickupMethodID),
		carrierMethodID:  parseOptionalGUID(cfg.CarrierMethodID),
		fallbackShipping: parseMoney(cfg.ShippingFallbackPrice),
		logger:           logger,
	}
}

// IsPickupOrder reports whether the order's delivery-type attribute marks
// it for in-store pickup
func IsPickupOrder(order *domain.WebhookOrder) bool {
	return strings.Contains(strings.ToLower(order.Attribute(attrDeliveryType)), "pickup")
}

// Compose builds the full ERP sales order. shippingItem is the resolved
// shipping-fee item; it is nil for pickup orders, which never get a
// synthetic shipping line.
func (c *Composer) Compose(
	order *domain.WebhookOrder,
	customerID uuid.UUID,
	lines []ResolvedLine,
	shippingItem *domain.ItemInfo,
	discounts *DiscountResult,
) *domain.SalesOrder {
	deliveryDate := c.resolveDeliveryDate(order)

	salesOrder := &domain.SalesOrder{
		OrderedBy:        customerID,
		DeliverTo:        customerID,
		InvoiceTo:        customerID,
		OrderDate:        time.Now(),
		DeliveryDate:     deliveryDate,
		Description:      "Webshop order " + order.Name,
		Currency:         c.currency(order),
		Status:           orderStatusOpen,
		Division:         c.cfg.Division,
		WarehouseID:      c.warehouseID,
		SalespersonID:    c.salespersonID,
		ShippingMethodID: c.resolveShippingMethod(order),
		YourRef:          c.referenceNumber(order),
	}

	for _, resolved := range lines {
		salesOrder.Lines = append(salesOrder.Lines, c.composeLine(resolved, deliveryDate))
	}

	if shippingItem != nil && !IsPickupOrder(order) {
		salesOrder.Lines = append(salesOrder.Lines, c.composeShippingLine(order, shippingItem, deliveryDate))
	}

	c.applyAmounts(salesOrder, order, discounts)

	return salesOrder
}

func (c *Composer) composeLine(resolved ResolvedLine, deliveryDate time.Time) domain.SalesOrderLine {
	description := resolved.Item.Description
	if description == "" {
		description = resolved.Line.Title
	}

	return domain.SalesOrderLine{
		ItemID:        resolved.Item.ID,
		Description:   description,
		Quantity:      decimal.NewFromInt(int64(resolved.Line.Quantity)),
		UnitPrice:     parseMoney(resolved.Line.Price),
		NetPrice:      resolved.Discount.NetPrice,
		Discount:      resolved.Discount.DiscountPercentage,
		VATPercentage: itemVAT(resolved.Item),
		UnitCode:      resolved.Item.UnitCode,
		DeliveryDate:  deliveryDate,
		Division:      c.cfg.Division,
	}
}

// composeShippingLine synthesizes the shipping-fee line. Price resolution
// order: the shipping line on the incoming order, the item's standard
// sales price, the configured fallback.
func (c *Composer) composeShippingLine(order *domain.WebhookOrder, item *domain.ItemInfo, deliveryDate time.Time) domain.SalesOrderLine {
	price := decimal.Zero
	if len(order.ShippingLines) > 0 {
		price = parseMoney(order.ShippingLines[0].Price)
	}
	if !price.IsPositive() && item.StandardSalesPrice.IsPositive() {
		price = item.StandardSalesPrice
	}
	if !price.IsPositive() {
		price = c.fallbackShipping
	}

	description := item.Description
	if description == "" {
		description = "Shipping costs"
	}

	return domain.SalesOrderLine{
		ItemID:        item.ID,
		Description:   description,
		Quantity:      decimal.NewFromInt(1),
		UnitPrice:     price,
		NetPrice:      price,
		Discount:      decimal.Zero,
		VATPercentage: itemVAT(item),
		UnitCode:      item.UnitCode,
		DeliveryDate:  deliveryDate,
		Division:      c.cfg.Division,
	}
}

// resolveShippingMethod defaults to the store-pickup method and switches
// to the carrier method only when a shipping line carries a known
// carrier-fee marker and a shipping address is present
func (c *Composer) resolveShippingMethod(order *domain.WebhookOrder) *uuid.UUID {
	if order.ShippingAddress == nil {
		return c.pickupMethodID
	}

	for _, line := range order.ShippingLines {
		for _, marker := range carrierMarkers {
			if strings.Contains(strings.ToLower(line.Title), strings.ToLower(marker)) {
				return c.carrierMethodID
			}
		}
	}

	return c.pickupMethodID
}

// resolveDeliveryDate uses the pickup-date attribute if present and
// parseable, otherwise a week from now
func (c *Composer) resolveDeliveryDate(order *domain.WebhookOrder) time.Time {
	if raw := order.Attribute(attrPickupDate); raw != "" {
		if d, err := time.Parse(pickupDateFormat, strings.TrimSpace(raw)); err == nil {
			return d
		}
		c.logger.Warn("Unparseable pickup date, falling back to default",
			zap.String("pickup_date", raw),
			zap.Int64("order_id", order.ID),
		)
	}
	return time.Now().AddDate(0, 0, 7)
}

func (c *Composer) referenceNumber(order *domain.WebhookOrder) *string {
	ref := strings.TrimSpace(order.Attribute(attrReferenceNumber))
	if ref == "" {
		return nil
	}
	return &ref
}

func (c *Composer) currency(order *domain.WebhookOrder) string {
	if order.Currency != "" {
		return order.Currency
	}
	return c.cfg.Currency
}

// applyAmounts fills the header totals. AmountDC/FC carry the
// VAT-exclusive order total; the discount fields carry only the
// cart-level pickup discount. Product-level discounts are already folded
// into each line's net price and deliberately do not appear here.
func (c *Composer) applyAmounts(salesOrder *domain.SalesOrder, order *domain.WebhookOrder, discounts *DiscountResult) {
	subtotal := parseMoney(order.CurrentSubtotalPrice)
	tax := parseMoney(order.CurrentTotalTax)
	exclVat := subtotal.Sub(tax)

	salesOrder.AmountDC = exclVat
	salesOrder.AmountFC = exclVat
	salesOrder.AmountFCExclVat = exclVat

	if discounts.HasPickupDiscount() {
		salesOrder.AmountDiscount = discounts.PickupAmountInclVat
		salesOrder.AmountDiscountExclVat = discounts.PickupAmountExclVat
	}
}

func itemVAT(item *domain.ItemInfo) decimal.Decimal {
	if item.VATPercentage != nil {
		return *item.VATPercentage
	}
	return defaultVATPercentage
}

func parseOptionalGUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
