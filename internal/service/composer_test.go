package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/config"
	"github.com/jafarshop/exactsync/internal/domain"
)

var (
	testPickupMethodID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testCarrierMethodID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testWarehouseID     = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	cfg := config.ExactConfig{
		Division:              15,
		WarehouseID:           testWarehouseID.String(),
		Currency:              "EUR",
		ShippingItemCode:      "VERZENDKOSTEN",
		ShippingFallbackPrice: "6.95",
		PickupMethodID:        testPickupMethodID.String(),
		CarrierMethodID:       testCarrierMethodID.String(),
	}
	return NewComposer(cfg, zap.NewNop())
}

func testItem(desc string) *domain.ItemInfo {
	vat := decimal.NewFromInt(21)
	return &domain.ItemInfo{
		ID:            uuid.New(),
		Description:   desc,
		UnitCode:      "pc",
		VATPercentage: &vat,
	}
}

func resolvedTestLines(order *domain.WebhookOrder) []ResolvedLine {
	discounts := ComputeDiscounts(order)
	lines := make([]ResolvedLine, 0, len(order.LineItems))
	for i, li := range order.LineItems {
		lines = append(lines, ResolvedLine{
			Line:     li,
			Item:     testItem(li.Title),
			Discount: discounts.Lines[i],
		})
	}
	return lines
}

func baseOrder() *domain.WebhookOrder {
	return &domain.WebhookOrder{
		ID:                   1001,
		OrderNumber:          1001,
		Name:                 "#1001",
		Currency:             "EUR",
		CurrentSubtotalPrice: "100.00",
		CurrentTotalTax:      "17.36",
		LineItems: []domain.OrderLineItem{
			{SKU: "ABC", Title: "Widget", Quantity: 2, Price: "50.00"},
		},
		ShippingAddress: &domain.OrderAddress{
			Address1: "Main Street 1", City: "Amsterdam", Zip: "1000AA", CountryCode: "NL",
		},
	}
}

func TestCompose_ShippingSynthesis(t *testing.T) {
	composer := newTestComposer(t)

	t.Run("non-pickup order gets a synthetic shipping line", func(t *testing.T) {
		order := baseOrder()
		order.ShippingLines = []domain.ShippingLine{{Title: "Verzendkosten", Price: "4.95"}}

		discounts := ComputeDiscounts(order)
		shippingItem := testItem("Verzendkosten")

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), shippingItem, discounts)

		require.Len(t, salesOrder.Lines, 2)
		shipping := salesOrder.Lines[1]
		assert.Equal(t, shippingItem.ID, shipping.ItemID)
		assert.True(t, shipping.UnitPrice.Equal(decimal.RequireFromString("4.95")))
		assert.True(t, shipping.Quantity.Equal(decimal.NewFromInt(1)))
	})

	t.Run("pickup order never gets a shipping line", func(t *testing.T) {
		order := baseOrder()
		order.NoteAttributes = []domain.NoteAttribute{
			{Name: "delivery_type", Value: "Pickup in store"},
		}

		discounts := ComputeDiscounts(order)

		// The orchestrator does not resolve a shipping item for pickup
		// orders; Compose also refuses one defensively.
		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), nil, discounts)

		require.Len(t, salesOrder.Lines, 1)
	})

	t.Run("item standard price when shipping line is absent", func(t *testing.T) {
		order := baseOrder()

		shippingItem := testItem("Verzendkosten")
		shippingItem.StandardSalesPrice = decimal.RequireFromString("5.50")

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), shippingItem, ComputeDiscounts(order))

		require.Len(t, salesOrder.Lines, 2)
		assert.True(t, salesOrder.Lines[1].UnitPrice.Equal(decimal.RequireFromString("5.50")))
	})

	t.Run("fallback constant when nothing else is usable", func(t *testing.T) {
		order := baseOrder()
		order.ShippingLines = []domain.ShippingLine{{Title: "Verzendkosten", Price: "not-a-price"}}

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), testItem("Verzendkosten"), ComputeDiscounts(order))

		require.Len(t, salesOrder.Lines, 2)
		assert.True(t, salesOrder.Lines[1].UnitPrice.Equal(decimal.RequireFromString("6.95")))
	})

	t.Run("shipping VAT defaults to 21 when the item has none", func(t *testing.T) {
		order := baseOrder()

		shippingItem := testItem("Verzendkosten")
		shippingItem.VATPercentage = nil

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), shippingItem, ComputeDiscounts(order))

		require.Len(t, salesOrder.Lines, 2)
		assert.True(t, salesOrder.Lines[1].VATPercentage.Equal(decimal.NewFromInt(21)))
	})
}

func TestCompose_ShippingMethodSelection(t *testing.T) {
	composer := newTestComposer(t)

	t.Run("defaults to store pickup", func(t *testing.T) {
		order := baseOrder()
		order.ShippingLines = nil

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), nil, ComputeDiscounts(order))

		require.NotNil(t, salesOrder.ShippingMethodID)
		assert.Equal(t, testPickupMethodID, *salesOrder.ShippingMethodID)
	})

	t.Run("carrier method for a carrier-fee marker with an address", func(t *testing.T) {
		order := baseOrder()
		order.ShippingLines = []domain.ShippingLine{{Title: "Verzendkosten", Price: "4.95"}}

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), testItem("Verzendkosten"), ComputeDiscounts(order))

		require.NotNil(t, salesOrder.ShippingMethodID)
		assert.Equal(t, testCarrierMethodID, *salesOrder.ShippingMethodID)
	})

	t.Run("free shipping marker also selects the carrier", func(t *testing.T) {
		order := baseOrder()
		order.ShippingLines = []domain.ShippingLine{{Title: "Gratis verzending", Price: "0.00"}}

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), testItem("Verzendkosten"), ComputeDiscounts(order))

		require.NotNil(t, salesOrder.ShippingMethodID)
		assert.Equal(t, testCarrierMethodID, *salesOrder.ShippingMethodID)
	})

	t.Run("no shipping address keeps the pickup method", func(t *testing.T) {
		order := baseOrder()
		order.ShippingAddress = nil
		order.ShippingLines = []domain.ShippingLine{{Title: "Verzendkosten", Price: "4.95"}}

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), testItem("Verzendkosten"), ComputeDiscounts(order))

		require.NotNil(t, salesOrder.ShippingMethodID)
		assert.Equal(t, testPickupMethodID, *salesOrder.ShippingMethodID)
	})
}

func TestCompose_DeliveryDate(t *testing.T) {
	composer := newTestComposer(t)

	t.Run("explicit pickup date", func(t *testing.T) {
		order := baseOrder()
		order.NoteAttributes = []domain.NoteAttribute{
			{Name: "pickup_date", Value: "2026-09-15"},
		}

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), nil, ComputeDiscounts(order))

		assert.Equal(t, "2026-09-15", salesOrder.DeliveryDate.Format("2006-01-02"))
	})

	t.Run("defaults to a week out", func(t *testing.T) {
		order := baseOrder()

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), nil, ComputeDiscounts(order))

		expected := time.Now().AddDate(0, 0, 7)
		assert.Equal(t, expected.Format("2006-01-02"), salesOrder.DeliveryDate.Format("2006-01-02"))
	})

	t.Run("unparseable pickup date falls back", func(t *testing.T) {
		order := baseOrder()
		order.NoteAttributes = []domain.NoteAttribute{
			{Name: "pickup_date", Value: "next tuesday"},
		}

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), nil, ComputeDiscounts(order))

		expected := time.Now().AddDate(0, 0, 7)
		assert.Equal(t, expected.Format("2006-01-02"), salesOrder.DeliveryDate.Format("2006-01-02"))
	})
}

func TestCompose_Header(t *testing.T) {
	composer := newTestComposer(t)

	t.Run("reference number from note attribute", func(t *testing.T) {
		order := baseOrder()
		order.NoteAttributes = []domain.NoteAttribute{
			{Name: "reference_number", Value: "  PO-4711  "},
		}

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), nil, ComputeDiscounts(order))

		require.NotNil(t, salesOrder.YourRef)
		assert.Equal(t, "PO-4711", *salesOrder.YourRef)
	})

	t.Run("blank reference number is nil", func(t *testing.T) {
		order := baseOrder()
		order.NoteAttributes = []domain.NoteAttribute{
			{Name: "reference_number", Value: "   "},
		}

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), nil, ComputeDiscounts(order))

		assert.Nil(t, salesOrder.YourRef)
	})

	t.Run("header amounts are VAT-exclusive", func(t *testing.T) {
		order := baseOrder()

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), nil, ComputeDiscounts(order))

		expected := decimal.RequireFromString("82.64") // 100.00 - 17.36
		assert.True(t, salesOrder.AmountDC.Equal(expected))
		assert.True(t, salesOrder.AmountFC.Equal(expected))
		assert.True(t, salesOrder.AmountFCExclVat.Equal(expected))
	})

	t.Run("discount fields carry only the pickup amount", func(t *testing.T) {
		order := baseOrder()
		order.LineItems[0].DiscountAllocations = []domain.DiscountAllocation{
			{Amount: "10.00", DiscountApplicationIndex: 0},
		}
		order.DiscountApplications = []domain.DiscountApplication{
			{Title: "Pickup Discount"},
		}

		salesOrder := composer.Compose(order, uuid.New(), resolvedTestLines(order), nil, ComputeDiscounts(order))

		assert.True(t, salesOrder.AmountDiscountExclVat.Equal(decimal.RequireFromString("10.00")))
		assert.True(t, salesOrder.AmountDiscount.Equal(decimal.RequireFromString("12.10")))
	})

	t.Run("party ids all resolve to the customer", func(t *testing.T) {
		order := baseOrder()
		customerID := uuid.New()

		salesOrder := composer.Compose(order, customerID, resolvedTestLines(order), nil, ComputeDiscounts(order))

		assert.Equal(t, customerID, salesOrder.OrderedBy)
		assert.Equal(t, customerID, salesOrder.DeliverTo)
		assert.Equal(t, customerID, salesOrder.InvoiceTo)
		require.NotNil(t, salesOrder.WarehouseID)
		assert.Equal(t, testWarehouseID, *salesOrder.WarehouseID)
		assert.Equal(t, 15, salesOrder.Division)
	})
}

func TestIsPickupOrder(t *testing.T) {
	order := baseOrder()
	assert.False(t, IsPickupOrder(order))

	order.NoteAttributes = []domain.NoteAttribute{
		{Name: "delivery_type", Value: "PICKUP at store"},
	}
	assert.True(t, IsPickupOrder(order))
}
