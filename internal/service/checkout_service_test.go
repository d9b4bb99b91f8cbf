package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/amanshu0143/backend/internal/logger"
	"github.com/amanshu0143/backend/internal/pricing"
	"github.com/amanshu0143/backend/internal/sanitize"
	"github.com/amanshu0143/backend/internal/signer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestCheckoutService(t *testing.T, repo *mockProductRepository, store *mockOrderStore) *CheckoutService {
	t.Helper()
	s, err := signer.New("test-secret")
	require.NoError(t, err)

	catalog := NewCatalogService(repo, newMockProductCache(), logger.Discard())
	engine := pricing.NewEngine(catalog, pricing.FlatPolicy())

	svc := NewCheckoutService(engine, s, store, sanitize.New(), logger.Discard())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validRequest() domain.CheckoutRequest {
	return domain.CheckoutRequest{
		Cart: []domain.CartLineInput{{ProductCode: "P1", Size: "M"}},
		Address: domain.Address{
			"fullName": "Asha Rao",
			"city":     "Pune",
			"country":  "IN",
		},
	}
}

func TestCheckout_Success(t *testing.T) {
	sut := newTestCheckoutService(t, newMockProductRepository(testProduct("P1", "800")), &mockOrderStore{})

	order, err := sut.Checkout(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, order.Cart, 1)
	assert.Equal(t, "P1", order.Cart[0].ProductCode)
	assert.True(t, decimal.NewFromInt(800).Equal(order.Pricing.Subtotal))
	assert.True(t, decimal.NewFromInt(80).Equal(order.Pricing.Discount))
	assert.True(t, decimal.Zero.Equal(order.Pricing.Delivery))
	assert.True(t, decimal.NewFromInt(720).Equal(order.Pricing.Total))
	assert.Len(t, order.Hash, 64)
	assert.True(t, sut.signer.Verify(order.Cart, order.Address, order.Pricing, order.Hash))
}

func TestCheckout_Deterministic(t *testing.T) {
	sut := newTestCheckoutService(t, newMockProductRepository(testProduct("P1", "800")), &mockOrderStore{})

	first, err := sut.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	second, err := sut.Checkout(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash)
}

func TestCheckout_DoesNotPersist(t *testing.T) {
	store := &mockOrderStore{}
	sut := newTestCheckoutService(t, newMockProductRepository(testProduct("P1", "800")), store)

	_, err := sut.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, store.count())
}

func TestCheckout_InvalidRequest(t *testing.T) {
	sut := newTestCheckoutService(t, newMockProductRepository(testProduct("P1", "800")), &mockOrderStore{})

	_, err := sut.Checkout(context.Background(), domain.CheckoutRequest{Address: domain.Address{}})
	assert.ErrorIs(t, err, ErrCartRequired)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req := validRequest()
	req.Address = nil
	_, err = sut.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, ErrAddressRequired)
}

func TestCheckout_EmptyAfterFiltering(t *testing.T) {
	sut := newTestCheckoutService(t, newMockProductRepository(testProduct("P1", "800")), &mockOrderStore{})

	req := validRequest()
	req.Cart = []domain.CartLineInput{{ProductCode: "UNKNOWN", Size: "M"}, {ProductCode: "P1", Size: " "}}
	_, err := sut.Checkout(context.Background(), req)

	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_LookupFailure(t *testing.T) {
	repo := newMockProductRepository()
	repo.err = errors.New("connection refused")
	sut := newTestCheckoutService(t, repo, &mockOrderStore{})

	_, err := sut.Checkout(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrProductLookup)
}

func TestVerifyAndPersist_RoundTrip(t *testing.T) {
	store := &mockOrderStore{}
	sut := newTestCheckoutService(t, newMockProductRepository(testProduct("P1", "800")), store)
	ctx := context.Background()

	signed, err := sut.Checkout(ctx, validRequest())
	require.NoError(t, err)

	persisted, err := sut.VerifyAndPersist(ctx, *signed)
	require.NoError(t, err)

	assert.Equal(t, "order-1", persisted.ID)
	assert.Equal(t, domain.OrderStatusPending, persisted.Status)
	assert.Equal(t, fixedNow, persisted.OrderDate)
	assert.Equal(t, signed.Hash, persisted.Hash)
	assert.Equal(t, "Asha Rao", persisted.Address.FullName)
	assert.Equal(t, "Pune", persisted.Address.City)
	assert.True(t, signed.Pricing.Total.Equal(persisted.Pricing.Total))
	assert.Equal(t, 1, store.count())
}

func TestVerifyAndPersist_NoDeduplication(t *testing.T) {
	store := &mockOrderStore{}
	sut := newTestCheckoutService(t, newMockProductRepository(testProduct("P1", "800")), store)
	ctx := context.Background()

	signed, err := sut.Checkout(ctx, validRequest())
	require.NoError(t, err)

	_, err = sut.VerifyAndPersist(ctx, *signed)
	require.NoError(t, err)
	_, err = sut.VerifyAndPersist(ctx, *signed)
	require.NoError(t, err)

	assert.Equal(t, 2, store.count())
}

func TestVerifyAndPersist_TamperedOrdersAreRejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *domain.SignedOrder)
	}{
		{"price", func(o *domain.SignedOrder) { o.Cart[0].Price = decimal.NewFromInt(1) }},
		{"product code", func(o *domain.SignedOrder) { o.Cart[0].ProductCode = "P2" }},
		{"product name", func(o *domain.SignedOrder) { o.Cart[0].ProductName = "Cheap" }},
		{"size", func(o *domain.SignedOrder) { o.Cart[0].Size = "XXL" }},
		{"extra line", func(o *domain.SignedOrder) { o.Cart = append(o.Cart, o.Cart[0]) }},
		{"address", func(o *domain.SignedOrder) { o.Address["city"] = "Mumbai" }},
		{"subtotal", func(o *domain.SignedOrder) { o.Pricing.Subtotal = decimal.NewFromInt(1) }},
		{"discount", func(o *domain.SignedOrder) { o.Pricing.Discount = decimal.NewFromInt(800) }},
		{"delivery", func(o *domain.SignedOrder) { o.Pricing.Delivery = decimal.NewFromInt(-150) }},
		{"total", func(o *domain.SignedOrder) { o.Pricing.Total = decimal.Zero }},
		{"forged hash", func(o *domain.SignedOrder) { o.Hash = "deadbeef" + o.Hash[8:] }},
		{"empty hash", func(o *domain.SignedOrder) { o.Hash = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockOrderStore{}
			sut := newTestCheckoutService(t, newMockProductRepository(testProduct("P1", "800")), store)
			ctx := context.Background()

			signed, err := sut.Checkout(ctx, validRequest())
			require.NoError(t, err)
			tt.mutate(signed)

			persisted, err := sut.VerifyAndPersist(ctx, *signed)

			assert.ErrorIs(t, err, ErrIntegrity)
			assert.Nil(t, persisted)
			assert.Equal(t, 0, store.count())
		})
	}
}

func TestVerifyAndPersist_StorageError(t *testing.T) {
	store := &mockOrderStore{err: errors.New("write concern error")}
	sut := newTestCheckoutService(t, newMockProductRepository(testProduct("P1", "800")), store)
	ctx := context.Background()

	signed, err := sut.Checkout(ctx, validRequest())
	require.NoError(t, err)

	_, err = sut.VerifyAndPersist(ctx, *signed)
	assert.ErrorIs(t, err, ErrStorage)
	assert.NotErrorIs(t, err, ErrIntegrity)
}

func TestVerifyAndPersist_CleansUnsignedFields(t *testing.T) {
	store := &mockOrderStore{}
	sut := newTestCheckoutService(t, newMockProductRepository(testProduct("P1", "800")), store)
	ctx := context.Background()

	signed, err := sut.Checkout(ctx, validRequest())
	require.NoError(t, err)
	signed.Cart[0].ImageURL = `<img src=x onerror=alert(1)>`

	persisted, err := sut.VerifyAndPersist(ctx, *signed)
	require.NoError(t, err)

	assert.NotContains(t, persisted.Cart[0].ImageURL, "<img")
	assert.Equal(t, "Product P1", persisted.Cart[0].ProductName)
}
