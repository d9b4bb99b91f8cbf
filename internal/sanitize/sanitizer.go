// Package sanitize cleans untrusted request data before it reaches pricing,
// signing or storage.
package sanitize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

var (
	ErrOperatorKey = errors.New("operator keys are not allowed")
	ErrNotScalar   = errors.New("expected a scalar value")
)

// Sanitizer strips markup from text. Cleaning is idempotent, so already
// cleaned values pass through unchanged.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// String removes all HTML from s and trims surrounding space.
func (s *Sanitizer) String(v string) string {
	return strings.TrimSpace(s.policy.Sanitize(v))
}

// Address validates a raw address object and returns it with every value
// coerced to a cleaned string.
func (s *Sanitizer) Address(raw map[string]any) (domain.Address, error) {
	addr, err := CoerceAddress(raw)
	if err != nil {
		return nil, err
	}
	for k, v := range addr {
		addr[k] = s.String(v)
	}
	return addr, nil
}

// Shipping keeps the known address fields, cleaned. Unknown keys are dropped.
func (s *Sanitizer) Shipping(addr domain.Address) domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:     s.String(addr["fullName"]),
		AddressLine1: s.String(addr["addressLine1"]),
		AddressLine2: s.String(addr["addressLine2"]),
		City:         s.String(addr["city"]),
		State:        s.String(addr["state"]),
		PostalCode:   s.String(addr["postalCode"]),
		Country:      s.String(addr["country"]),
		Phone:        s.String(addr["phone"]),
	}
}

// CoerceAddress converts every value of raw to a string without altering its
// text. Nested objects, arrays and operator keys are rejected.
func CoerceAddress(raw map[string]any) (domain.Address, error) {
	if err := RejectOperators(raw); err != nil {
		return nil, err
	}
	addr := make(domain.Address, len(raw))
	for k, v := range raw {
		str, err := Scalar(v)
		if err != nil {
			return nil, fmt.Errorf("address field %q: %w", k, err)
		}
		addr[k] = str
	}
	return addr, nil
}

// RejectOperators walks v and fails on any object key that could be read as
// a query operator or a dotted path.
func RejectOperators(v any) error {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
				return fmt.Errorf("%w: %q", ErrOperatorKey, k)
			}
			if err := RejectOperators(child); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range t {
			if err := RejectOperators(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// Scalar renders a decoded JSON scalar as a string. null becomes "".
func Scalar(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("%w, got %T", ErrNotScalar, v)
	}
}

// Text returns v trimmed when it is a string and "" for anything else.
func Text(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
