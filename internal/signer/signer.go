// Package signer computes the keyed hash that makes a checkout quote
// tamper-evident.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/amanshu0143/backend/internal/domain"
)

var ErrEmptyKey = errors.New("signing key is empty")

// Signer produces HMAC-SHA256 digests over the canonical form of an order.
// The key is fixed for the lifetime of the Signer.
type Signer struct {
	key []byte
}

func New(key string) (*Signer, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrEmptyKey
	}
	return &Signer{key: []byte(key)}, nil
}

// Sign returns the hex-encoded HMAC of cart, address and pricing.
func (s *Signer) Sign(cart []domain.PricedLine, address domain.Address, pricing domain.PricingSummary) string {
	return hex.EncodeToString(s.sum(cart, address, pricing))
}

// Verify reports whether hash is the signature of the given order contents.
// The comparison runs in constant time. Orders carrying an amount that is out
// of range never verify and are not serialized.
func (s *Signer) Verify(cart []domain.PricedLine, address domain.Address, pricing domain.PricingSummary, hash string) bool {
	if !pricing.InRange() {
		return false
	}
	for _, l := range cart {
		if !domain.AmountInRange(l.Price) {
			return false
		}
	}
	provided, err := hex.DecodeString(strings.TrimSpace(hash))
	if err != nil {
		return false
	}
	return hmac.Equal(s.sum(cart, address, pricing), provided)
}

func (s *Signer) sum(cart []domain.PricedLine, address domain.Address, pricing domain.PricingSummary) []byte {
	mac := hmac.New(sha256.New, s.key)
	_, _ = mac.Write(Canonical(cart, address, pricing))
	return mac.Sum(nil)
}

type canonicalLine struct {
	Price       json.Number `json:"price"`
	ProductCode string      `json:"productCode"`
	ProductName string      `json:"productName"`
	Size        string      `json:"size"`
}

type canonicalPricing struct {
	Delivery json.Number `json:"delivery"`
	Discount json.Number `json:"discount"`
	Subtotal json.Number `json:"subtotal"`
	Total    json.Number `json:"total"`
}

type canonicalOrder struct {
	Address map[string]string `json:"address"`
	Cart    []canonicalLine   `json:"cart"`
	Pricing canonicalPricing  `json:"pricing"`
}

// Canonical serializes the signed part of an order. Keys come out sorted at
// every level and decimals in their shortest form, so equal values always
// produce equal bytes. Image URLs and product ids are not covered.
func Canonical(cart []domain.PricedLine, address domain.Address, pricing domain.PricingSummary) []byte {
	lines := make([]canonicalLine, 0, len(cart))
	for _, l := range cart {
		lines = append(lines, canonicalLine{
			Price:       json.Number(l.Price.String()),
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Size:        l.Size,
		})
	}

	addr := make(map[string]string, len(address))
	for k, v := range address {
		addr[k] = v
	}

	// strings and decimal text only, Marshal cannot fail here
	b, _ := json.Marshal(canonicalOrder{
		Address: addr,
		Cart:    lines,
		Pricing: canonicalPricing{
			Delivery: json.Number(pricing.Delivery.String()),
			Discount: json.Number(pricing.Discount.String()),
			Subtotal: json.Number(pricing.Subtotal.String()),
			Total:    json.Number(pricing.Total.String()),
		},
	})
	return b
}
