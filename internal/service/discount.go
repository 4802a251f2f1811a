package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/exactsync/internal/domain"
)

// The pickup discount is VAT-exclusive as delivered by the storefront;
// the ERP header wants the VAT-inclusive amount alongside it.
var vatUplift = decimal.NewFromFloat(1.21)

var oneHundred = decimal.NewFromInt(100)

// LineDiscount is the computed pricing for a single line item
type LineDiscount struct {
	// NetPrice is the unit price after all line-level allocations
	NetPrice decimal.Decimal
	// DiscountPercentage is the product-level discount as a 0-100
	// value; the pickup share is excluded
	DiscountPercentage decimal.Decimal
}

// DiscountResult is the output of the allocation engine for one order
type DiscountResult struct {
	// Lines is parallel to the order's line items
	Lines []LineDiscount
	// PickupIndex is the discount-application index of the pickup
	// discount, or -1 when the cart has none
	PickupIndex int
	// PickupAmountExclVat is the accumulated pickup discount across all
	// line allocations
	PickupAmountExclVat decimal.Decimal
	// PickupAmountInclVat is the same amount with the VAT uplift applied
	PickupAmountInclVat decimal.Decimal
	// PickupPercentage is the cart-level pickup discount as a fraction
	// (the ERP expects 0.02, not 2)
	PickupPercentage decimal.Decimal
}

// HasPickupDiscount reports whether a pickup discount was found with a
// positive accumulated amount
func (r *DiscountResult) HasPickupDiscount() bool {
	return r.PickupIndex >= 0 && r.PickupAmountExclVat.IsPositive()
}

// ComputeDiscounts allocates the order's discounts. Per line, every
// allocation is folded into the net price, but only product-attributed
// allocations count toward the discount percentage: pickup-attributed
// amounts are carved out and accumulated into a single cart-level
// discount reported on the order header instead.
func ComputeDiscounts(order *domain.WebhookOrder) *DiscountResult {
	result := &DiscountResult{
		PickupIndex: findPickupIndex(order.DiscountApplications),
	}

	pickupTotal := decimal.Zero

	for _, line := range order.LineItems {
		unitPrice := parseMoney(line.Price)
		quantity := decimal.NewFromInt(int64(line.Quantity))

		totalSum := decimal.Zero
		productSum := decimal.Zero
		if len(line.DiscountAllocations) > 0 {
			for _, alloc := range line.DiscountAllocations {
				amount := parseMoney(alloc.Amount)
				totalSum = totalSum.Add(amount)
				if result.PickupIndex >= 0 && alloc.DiscountApplicationIndex == result.PickupIndex {
					pickupTotal = pickupTotal.Add(amount)
				} else {
					productSum = productSum.Add(amount)
				}
			}
		} else {
			// No allocations at all: fall back to the aggregate
			// discount field.
			totalSum = parseMoney(line.TotalDiscount)
			productSum = totalSum
		}

		discountPerUnit := decimal.Zero
		productPerUnit := decimal.Zero
		if quantity.IsPositive() {
			discountPerUnit = totalSum.Div(quantity)
			productPerUnit = productSum.Div(quantity)
		}

		netPrice := unitPrice.Sub(discountPerUnit)

		discountPct := decimal.Zero
		if unitPrice.IsPositive() {
			discountPct = productPerUnit.Div(unitPrice).Mul(oneHundred)
		}

		result.Lines = append(result.Lines, LineDiscount{
			NetPrice:           netPrice,
			DiscountPercentage: discountPct,
		})
	}

	if result.PickupIndex >= 0 && pickupTotal.IsPositive() {
		result.PickupAmountExclVat = pickupTotal
		result.PickupAmountInclVat = pickupTotal.Mul(vatUplift)

		// Pickup is applied after product discounts, so the percentage
		// is taken against the subtotal before the pickup amount was
		// deducted.
		subtotal := parseMoney(order.CurrentSubtotalPrice)
		base := subtotal.Add(pickupTotal)
		if base.IsPositive() {
			result.PickupPercentage = pickupTotal.Div(base)
		}
	}

	return result
}

// findPickupIndex returns the index of the first discount application
// whose title contains "pickup" (case-insensitive), or -1
func findPickupIndex(applications []domain.DiscountApplication) int {
	for i, app := range applications {
		if strings.Contains(strings.ToLower(app.Title), "pickup") {
			return i
		}
	}
	return -1
}

// parseMoney parses a storefront money string, treating anything
// unparseable as zero. The webhook contract absorbs malformed input
// instead of rejecting it.
func parseMoney(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
