package cache

import (
	"context"
	"errors"

	"github.com/amanshu0143/backend/internal/domain"
)

// ProductCache holds catalog entries keyed by product code.
type ProductCache interface {
	Get(ctx context.Context, code string) (*domain.Product, error)
	// GetMany returns the cached products found among codes. Codes that are not
	// cached are simply absent from the result.
	GetMany(ctx context.Context, codes []string) (map[string]domain.Product, error)
	Set(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, code string) error
}

var ErrCacheMiss = errors.New("cache miss")
