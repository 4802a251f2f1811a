package domain

// WebhookOrder is the storefront order payload delivered by the
// orders/create webhook. Fields are decoded case-insensitively by
// encoding/json, which keeps us tolerant of upstream schema drift.
type WebhookOrder struct {
	ID                   int64                 `json:"id"`
	OrderNumber          int64                 `json:"order_number"`
	Name                 string                `json:"name"`
	Currency             string                `json:"currency"`
	CurrentSubtotalPrice string                `json:"current_subtotal_price"`
	CurrentTotalTax      string                `json:"current_total_tax"`
	Customer             *OrderCustomer        `json:"customer,omitempty"`
	LineItems            []OrderLineItem       `json:"line_items"`
	DiscountApplications []DiscountApplication `json:"discount_applications"`
	ShippingLines        []ShippingLine        `json:"shipping_lines"`
	BillingAddress       *OrderAddress         `json:"billing_address,omitempty"`
	ShippingAddress      *OrderAddress         `json:"shipping_address,omitempty"`
	NoteAttributes       []NoteAttribute       `json:"note_attributes"`
}

// OrderCustomer identifies the storefront customer placing the order
type OrderCustomer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// OrderLineItem is a single purchased item. Money fields arrive as strings.
type OrderLineItem struct {
	SKU                 string               `json:"sku"`
	Title               string               `json:"title"`
	Quantity            int                  `json:"quantity"`
	Price               string               `json:"price"`
	TotalDiscount       string               `json:"total_discount"`
	DiscountAllocations []DiscountAllocation `json:"discount_allocations"`
}

// DiscountAllocation ties a discounted amount on a line item back to the
// cart-level discount application it came from
type DiscountAllocation struct {
	Amount                   string `json:"amount"`
	DiscountApplicationIndex int    `json:"discount_application_index"`
}

// DiscountApplication is a cart-level discount. A title containing
// "pickup" (case-insensitive) marks the sitewide pickup discount.
type DiscountApplication struct {
	Title     string `json:"title"`
	Value     string `json:"value"`
	ValueType string `json:"value_type"`
}

// ShippingLine carries the shipping fee the customer paid
type ShippingLine struct {
	Title string `json:"title"`
	Price string `json:"price"`
}

// OrderAddress is a storefront billing or shipping address
type OrderAddress struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
}

// NoteAttribute is a free-form key/value pair on the order. The pipeline
// reads delivery-type, pickup-date and reference-number signals from it.
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Attribute returns the value of the named note attribute, or "" if absent
func (o *WebhookOrder) Attribute(name string) string {
	for _, attr := range o.NoteAttributes {
		if attr.Name == name {
			return attr.Value
		}
	}
	return ""
}
