// Package pricing turns a client cart into priced lines and an order summary.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart     = errors.New("no valid products found for cart")
	ErrProductLookup = errors.New("product lookup failed")
)

// Catalog resolves product codes. Unknown codes are simply absent from the result.
type Catalog interface {
	FindProductsByCode(ctx context.Context, codes []string) ([]domain.Product, error)
}

type Quote struct {
	Lines   []domain.PricedLine
	Summary domain.PricingSummary
}

type Engine struct {
	catalog Catalog
	policy  Policy
}

func NewEngine(catalog Catalog, policy Policy) *Engine {
	return &Engine{
		catalog: catalog,
		policy:  policy,
	}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Price resolves every line against the catalog in one lookup. Lines with a
// blank code or size, or a code the catalog does not know, are dropped.
func (e *Engine) Price(ctx context.Context, lines []domain.CartLineInput) (*Quote, error) {
	type wanted struct {
		code string
		size string
	}

	valid := make([]wanted, 0, len(lines))
	codes := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		code := strings.TrimSpace(l.ProductCode)
		size := strings.TrimSpace(l.Size)
		if code == "" || size == "" {
			continue
		}
		valid = append(valid, wanted{code: code, size: size})
		if _, ok := seen[code]; !ok {
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	if len(valid) == 0 {
		return nil, ErrEmptyCart
	}

	products, err := e.catalog.FindProductsByCode(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProductLookup, err)
	}

	byCode := make(map[string]domain.Product, len(products))
	for _, p := range products {
		if _, dup := byCode[p.Code]; !dup {
			byCode[p.Code] = p
		}
	}

	priced := make([]domain.PricedLine, 0, len(valid))
	subtotal := decimal.Zero
	for _, w := range valid {
		p, ok := byCode[w.code]
		if !ok {
			continue
		}
		priced = append(priced, domain.PricedLine{
			ProductID:   p.ID,
			ProductCode: p.Code,
			ProductName: p.Name,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
			Size:        w.size,
		})
		subtotal = subtotal.Add(p.Price)
	}
	if len(priced) == 0 {
		return nil, ErrEmptyCart
	}

	return &Quote{
		Lines:   priced,
		Summary: e.policy.Summarize(subtotal),
	}, nil
}
