package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/amanshu0143/backend/internal/pricing"
	"github.com/amanshu0143/backend/internal/sanitize"
)

type Pricer interface {
	Price(ctx context.Context, lines []domain.CartLineInput) (*pricing.Quote, error)
}

type OrderSigner interface {
	Sign(cart []domain.PricedLine, address domain.Address, pricing domain.PricingSummary) string
	Verify(cart []domain.PricedLine, address domain.Address, pricing domain.PricingSummary, hash string) bool
}

type OrderStore interface {
	InsertOrder(ctx context.Context, order *domain.PersistedOrder) (string, error)
}

// CheckoutService runs the two-phase checkout: Checkout prices and signs a
// quote, VerifyAndPersist accepts it back only if the signature still holds.
type CheckoutService struct {
	pricer    Pricer
	signer    OrderSigner
	orders    OrderStore
	sanitizer *sanitize.Sanitizer
	now       func() time.Time
	log       *slog.Logger
}

func NewCheckoutService(pricer Pricer, signer OrderSigner, orders OrderStore, sanitizer *sanitize.Sanitizer, log *slog.Logger) *CheckoutService {
	return &CheckoutService{
		pricer:    pricer,
		signer:    signer,
		orders:    orders,
		sanitizer: sanitizer,
		now:       time.Now,
		log:       log,
	}
}

// Checkout prices req.Cart against the catalog and signs the result together
// with req.Address. Nothing is stored.
func (s *CheckoutService) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.SignedOrder, error) {
	if len(req.Cart) == 0 {
		return nil, ErrCartRequired
	}
	if req.Address == nil {
		return nil, ErrAddressRequired
	}

	quote, err := s.pricer.Price(ctx, req.Cart)
	if err != nil {
		return nil, err
	}

	order := &domain.SignedOrder{
		Cart:    quote.Lines,
		Address: req.Address,
		Pricing: quote.Summary,
	}
	order.Hash = s.signer.Sign(order.Cart, order.Address, order.Pricing)

	s.log.InfoContext(ctx, "checkout quote signed",
		"lines", len(order.Cart),
		"total", order.Pricing.Total.String(),
	)
	return order, nil
}

// VerifyAndPersist stores order if and only if its hash matches its cart,
// address and pricing. Every successful call inserts a new order.
func (s *CheckoutService) VerifyAndPersist(ctx context.Context, order domain.SignedOrder) (*domain.PersistedOrder, error) {
	if !s.signer.Verify(order.Cart, order.Address, order.Pricing, order.Hash) {
		s.log.WarnContext(ctx, "order verification failed", "lines", len(order.Cart))
		return nil, ErrIntegrity
	}

	persisted := &domain.PersistedOrder{
		Cart:      s.cleanLines(order.Cart),
		Address:   s.sanitizer.Shipping(order.Address),
		Pricing:   order.Pricing,
		Hash:      order.Hash,
		OrderDate: s.now().UTC(),
		Status:    domain.OrderStatusPending,
	}

	id, err := s.orders.InsertOrder(ctx, persisted)
	if err != nil {
		s.log.ErrorContext(ctx, "order insert failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	persisted.ID = id

	s.log.InfoContext(ctx, "order persisted",
		"order_id", id,
		"total", persisted.Pricing.Total.String(),
	)
	return persisted, nil
}

// cleanLines keeps signed fields exactly as verified and cleans the unsigned ones.
func (s *CheckoutService) cleanLines(lines []domain.PricedLine) []domain.PricedLine {
	out := make([]domain.PricedLine, len(lines))
	for i, l := range lines {
		l.ProductID = s.sanitizer.String(l.ProductID)
		l.ImageURL = s.sanitizer.String(l.ImageURL)
		out[i] = l
	}
	return out
}
