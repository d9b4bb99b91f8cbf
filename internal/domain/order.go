package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
)

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// CartLineInput is a single cart entry as sent by the client.
type CartLineInput struct {
	ProductCode string
	Size        string
}

// PricedLine is a cart line resolved against the catalog.
type PricedLine struct {
	ProductID   string          `json:"_id,omitempty"`
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Size        string          `json:"size"`
}

type PricingSummary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Delivery decimal.Decimal `json:"delivery"`
	Total    decimal.Decimal `json:"total"`
}

// Amounts outside these bounds are never produced by pricing and are refused
// before any arithmetic or formatting touches them.
const (
	MinAmountExponent = -10
	MaxAmountExponent = 12
	maxAmountBits     = 128
)

// AmountInRange reports whether d has a plausible scale for a money value.
func AmountInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < MinAmountExponent || exp > MaxAmountExponent {
		return false
	}
	return d.Coefficient().BitLen() <= maxAmountBits
}

// InRange reports whether every amount in the summary is in range.
func (p PricingSummary) InRange() bool {
	return AmountInRange(p.Subtotal) && AmountInRange(p.Discount) &&
		AmountInRange(p.Delivery) && AmountInRange(p.Total)
}

// Address is the free-form shipping address. Values are always strings.
type Address map[string]string

type CheckoutRequest struct {
	Cart    []CartLineInput
	Address Address
}

// SignedOrder is a priced quote together with the keyed hash over its
// cart, address and pricing.
type SignedOrder struct {
	Cart    []PricedLine   `json:"cart"`
	Address Address        `json:"address"`
	Pricing PricingSummary `json:"pricing"`
	Hash    string         `json:"hash"`
}

// ShippingAddress is the fixed shape an address takes once persisted.
type ShippingAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

type PersistedOrder struct {
	ID        string          `json:"id"`
	Cart      []PricedLine    `json:"cart"`
	Address   ShippingAddress `json:"address"`
	Pricing   PricingSummary  `json:"pricing"`
	Hash      string          `json:"hash"`
	OrderDate time.Time       `json:"orderDate"`
	Status    OrderStatus     `json:"status"`
}
