package http

import (
	"context"
	"sync"

	"github.com/amanshu0143/backend/internal/auth"
	"github.com/amanshu0143/backend/internal/domain"
)

type CheckouterMock struct {
	m           sync.Mutex
	order       *domain.SignedOrder
	persisted   *domain.PersistedOrder
	err         error
	gotCheckout *domain.CheckoutRequest
	gotVerify   *domain.SignedOrder
}

func (c *CheckouterMock) Checkout(_ context.Context, req domain.CheckoutRequest) (*domain.SignedOrder, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.gotCheckout = &req
	if c.err != nil {
		return nil, c.err
	}
	return c.order, nil
}

func (c *CheckouterMock) VerifyAndPersist(_ context.Context, order domain.SignedOrder) (*domain.PersistedOrder, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.gotVerify = &order
	if c.err != nil {
		return nil, c.err
	}
	return c.persisted, nil
}

type SubscriberMock struct {
	got string
	err error
}

func (s *SubscriberMock) Subscribe(_ context.Context, email string) (*domain.Subscriber, error) {
	s.got = email
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Subscriber{Email: email}, nil
}

type ProductLookupMock struct {
	product *domain.Product
	err     error
	gotCode string
	gotSize string
}

func (p *ProductLookupMock) LookupProduct(_ context.Context, code, size string) (*domain.Product, error) {
	p.gotCode, p.gotSize = code, size
	if p.err != nil {
		return nil, p.err
	}
	return p.product, nil
}

type TokenIssuerMock struct {
	token string
	err   error
}

func (t TokenIssuerMock) Issue() (string, *auth.Claims, error) {
	if t.err != nil {
		return "", nil, t.err
	}
	return t.token, &auth.Claims{ClientID: "client-1"}, nil
}
