package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/amanshu0143/backend/internal/cache"
	"github.com/amanshu0143/backend/internal/domain"
	"github.com/amanshu0143/backend/internal/repository"
	"golang.org/x/sync/singleflight"
)

// CatalogService reads products through the cache. It satisfies pricing.Catalog.
type CatalogService struct {
	repo  repository.ProductRepository
	cache cache.ProductCache
	sfg   singleflight.Group // Prevents cache stampede
	log   *slog.Logger
}

func NewCatalogService(repo repository.ProductRepository, cache cache.ProductCache, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// FindProductsByCode returns the known products among codes. Cached entries are
// served from the cache, the rest come from one repository query.
func (s *CatalogService) FindProductsByCode(ctx context.Context, codes []string) ([]domain.Product, error) {
	cached, err := s.cache.GetMany(ctx, codes)
	if err != nil {
		s.log.WarnContext(ctx, "cache get failed", "error", err)
		cached = map[string]domain.Product{}
	}

	var missing []string
	for _, c := range codes {
		if _, ok := cached[c]; !ok {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		key := sortedKey(missing)
		v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
			return s.repo.FindProductsByCode(ctx, missing)
		})
		if err != nil {
			return nil, err
		}

		fetched := v.([]domain.Product)
		for _, p := range fetched {
			cached[p.Code] = p
		}
		s.fill(fetched)
	}

	products := make([]domain.Product, 0, len(codes))
	for _, c := range codes {
		if p, ok := cached[c]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

// LookupProduct returns the product with the given code. size is only
// validated, it does not select a variant.
func (s *CatalogService) LookupProduct(ctx context.Context, code, size string) (*domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.TrimSpace(size) == "" {
		return nil, ErrProductRequired
	}

	v, err, _ := s.sfg.Do("product:"+code, func() (interface{}, error) {
		product, err := s.cache.Get(ctx, code)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get failed", "code", code, "error", err)
		}

		product, err = s.repo.FindProductByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		s.fill([]domain.Product{*product})
		return product, nil
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrProductLookup, err)
	}

	return v.(*domain.Product), nil
}

func (s *CatalogService) fill(products []domain.Product) {
	if len(products) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		for _, p := range products {
			if err := s.cache.Set(ctx, p); err != nil {
				s.log.Warn("cache set failed", "code", p.Code, "error", err)
			}
		}
	}()
}

func sortedKey(codes []string) string {
	sorted := slices.Clone(codes)
	slices.Sort(sorted)
	var b strings.Builder
	b.WriteString("products:")
	for _, c := range sorted {
		// length-prefixed so no code can forge a separator
		fmt.Fprintf(&b, "%d:%s;", len(c), c)
	}
	return b.String()
}
