// Package circuitbreaker guards catalog reads so a failing database is not
// hammered by every checkout.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/amanshu0143/backend/internal/repository"
	"github.com/sony/gobreaker/v2"
)

type Config struct {
	Name string
	// MaxRequests is the number of trial calls let through while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

func DefaultConfig() Config {
	return Config{
		Name:                "catalog",
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// ProductRepository wraps a repository.ProductRepository with a breaker.
// Not-found results and cancelled requests do not count as failures.
type ProductRepository struct {
	next repository.ProductRepository
	cb   *gobreaker.CircuitBreaker[any]
}

func NewProductRepository(next repository.ProductRepository, cfg Config, log *slog.Logger) *ProductRepository {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, repository.ErrProductNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})
	return &ProductRepository{next: next, cb: cb}
}

func (r *ProductRepository) FindProductsByCode(ctx context.Context, codes []string) ([]domain.Product, error) {
	res, err := r.cb.Execute(func() (any, error) {
		return r.next.FindProductsByCode(ctx, codes)
	})
	if err != nil {
		return nil, err
	}
	products, _ := res.([]domain.Product)
	return products, nil
}

func (r *ProductRepository) FindProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	res, err := r.cb.Execute(func() (any, error) {
		return r.next.FindProductByCode(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	product, _ := res.(*domain.Product)
	return product, nil
}

// State reports the breaker state, for health output and tests.
func (r *ProductRepository) State() string {
	return r.cb.State().String()
}
