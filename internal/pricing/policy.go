package pricing

import (
	"fmt"
	"strings"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	PolicyFlat   = "flat"
	PolicyTiered = "tiered"
)

// DiscountTier applies when Min <= subtotal and, if Max is set, subtotal <= Max.
// Flat takes precedence over Rate.
type DiscountTier struct {
	Min   decimal.Decimal
	Max   decimal.NullDecimal
	Flat  decimal.Decimal
	Rate  decimal.Decimal
	Floor bool
}

func (t DiscountTier) matches(subtotal decimal.Decimal) bool {
	if subtotal.LessThan(t.Min) {
		return false
	}
	return !t.Max.Valid || subtotal.LessThanOrEqual(t.Max.Decimal)
}

func (t DiscountTier) discount(subtotal decimal.Decimal) decimal.Decimal {
	if !t.Flat.IsZero() {
		return t.Flat
	}
	d := subtotal.Mul(t.Rate)
	if t.Floor {
		return d.Floor()
	}
	return d
}

// Policy is a named set of discount and delivery rules.
type Policy struct {
	Name string
	// Tiers are checked in order, the first match wins.
	Tiers []DiscountTier
	// Delivery is free only when the subtotal is strictly above this amount.
	FreeDeliveryAbove decimal.Decimal
	DeliveryFee       decimal.Decimal
}

// FlatPolicy gives 10% off every order and charges 150 for delivery up to 700.
func FlatPolicy() Policy {
	return Policy{
		Name:              PolicyFlat,
		Tiers:             []DiscountTier{{Rate: decimal.RequireFromString("0.10")}},
		FreeDeliveryAbove: decimal.NewFromInt(700),
		DeliveryFee:       decimal.NewFromInt(150),
	}
}

// TieredPolicy gives 300 off between 2599 and 4999, a floored 10% above that,
// and charges 70 for delivery up to 1699.
func TieredPolicy() Policy {
	return Policy{
		Name: PolicyTiered,
		Tiers: []DiscountTier{
			{
				Min:  decimal.NewFromInt(2599),
				Max:  decimal.NewNullDecimal(decimal.NewFromInt(4999)),
				Flat: decimal.NewFromInt(300),
			},
			{
				Min:   decimal.NewFromInt(4999),
				Rate:  decimal.RequireFromString("0.10"),
				Floor: true,
			},
		},
		FreeDeliveryAbove: decimal.NewFromInt(1699),
		DeliveryFee:       decimal.NewFromInt(70),
	}
}

// PolicyByName resolves a configured policy name. An empty name selects the flat policy.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyFlat:
		return FlatPolicy(), nil
	case PolicyTiered:
		return TieredPolicy(), nil
	default:
		return Policy{}, fmt.Errorf("unknown pricing policy %q", name)
	}
}

// Summarize derives discount, delivery and total from the subtotal.
func (p Policy) Summarize(subtotal decimal.Decimal) domain.PricingSummary {
	discount := decimal.Zero
	for _, tier := range p.Tiers {
		if tier.matches(subtotal) {
			discount = tier.discount(subtotal)
			break
		}
	}
	discount = discount.Round(2)

	delivery := p.DeliveryFee
	if subtotal.GreaterThan(p.FreeDeliveryAbove) {
		delivery = decimal.Zero
	}

	return domain.PricingSummary{
		Subtotal: subtotal,
		Discount: discount,
		Delivery: delivery,
		Total:    subtotal.Add(delivery).Sub(discount).Round(2),
	}
}
