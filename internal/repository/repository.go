package repository

import (
	"context"
	"errors"

	"github.com/amanshu0143/backend/internal/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrAlreadySubscribed = errors.New("email is already subscribed")
)

// ProductRepository reads the product catalog. Consumers define narrower
// interfaces where they need less.
type ProductRepository interface {
	FindProductsByCode(ctx context.Context, codes []string) ([]domain.Product, error)
	FindProductByCode(ctx context.Context, code string) (*domain.Product, error)
}

// OrderRepository stores verified orders and tracks which of them have been
// announced to downstream consumers.
type OrderRepository interface {
	InsertOrder(ctx context.Context, order *domain.PersistedOrder) (string, error)
	GetOrder(ctx context.Context, id string) (*domain.PersistedOrder, error)
	FindUnpublished(ctx context.Context, limit int) ([]domain.PersistedOrder, error)
	MarkPublished(ctx context.Context, id string) error
}

type SubscriberRepository interface {
	Exists(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, sub domain.Subscriber) error
}
