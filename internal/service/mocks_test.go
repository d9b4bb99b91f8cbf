package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/amanshu0143/backend/internal/cache"
	"github.com/amanshu0143/backend/internal/domain"
	"github.com/amanshu0143/backend/internal/repository"
)

type mockProductRepository struct {
	m        sync.RWMutex
	products map[string]domain.Product
	err      error
	calls    [][]string
}

func newMockProductRepository(products ...domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.Code] = p
	}
	return m
}

func (m *mockProductRepository) FindProductsByCode(_ context.Context, codes []string) ([]domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, append([]string(nil), codes...))
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for _, c := range codes {
		if p, ok := m.products[c]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) FindProductByCode(_ context.Context, code string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, []string{code})
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[code]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockProductRepository) callCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.calls)
}

type mockProductCache struct {
	m        sync.RWMutex
	products map[string]domain.Product
	err      error
}

func newMockProductCache(products ...domain.Product) *mockProductCache {
	m := &mockProductCache{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.Code] = p
	}
	return m
}

func (m *mockProductCache) Get(_ context.Context, code string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[code]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &p, nil
}

func (m *mockProductCache) GetMany(_ context.Context, codes []string) (map[string]domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	found := make(map[string]domain.Product)
	for _, c := range codes {
		if p, ok := m.products[c]; ok {
			found[c] = p
		}
	}
	return found, nil
}

func (m *mockProductCache) Set(_ context.Context, p domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.products[p.Code] = p
	return nil
}

func (m *mockProductCache) Delete(_ context.Context, code string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.products, code)
	return nil
}

func (m *mockProductCache) has(code string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.products[code]
	return ok
}

type mockOrderStore struct {
	m      sync.Mutex
	orders []domain.PersistedOrder
	err    error
}

func (m *mockOrderStore) InsertOrder(_ context.Context, order *domain.PersistedOrder) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.orders = append(m.orders, *order)
	return fmt.Sprintf("order-%d", len(m.orders)), nil
}

func (m *mockOrderStore) count() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.orders)
}

type mockSubscriberRepository struct {
	m         sync.Mutex
	emails    map[string]domain.Subscriber
	existsErr error
	insertErr error
}

func newMockSubscriberRepository() *mockSubscriberRepository {
	return &mockSubscriberRepository{emails: make(map[string]domain.Subscriber)}
}

func (m *mockSubscriberRepository) Exists(_ context.Context, email string) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.emails[email]
	return ok, nil
}

func (m *mockSubscriberRepository) Insert(_ context.Context, sub domain.Subscriber) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.emails[sub.Email] = sub
	return nil
}
