package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/telemetry"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("store unavailable")

func zeroBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

func testMetrics(t *testing.T) *telemetry.ShopMetrics {
	t.Helper()
	m, err := telemetry.NewShopMetrics()
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	return m
}

func testUser() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "buyer@example.com", Role: "user"}
}

var testCheckoutConfig = config.CheckoutConfig{
	Currency:   "inr",
	SuccessURL: "http://localhost:3000/checkout/success",
	CancelURL:  "http://localhost:3000/checkout/cancel",
}

// MockProductRepository is a map-backed catalog. The first FailCount calls fail with errStoreDown.
type MockProductRepository struct {
	mu        sync.Mutex
	Products  map[uuid.UUID]*domain.Product
	FailCount int
	Calls     int
}

func newMockProductRepository(products ...*domain.Product) *MockProductRepository {
	m := &MockProductRepository{Products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		m.Products[p.ID] = p
	}
	return m
}

func (m *MockProductRepository) fail() error {
	m.Calls++
	if m.FailCount > 0 {
		m.FailCount--
		return errStoreDown
	}
	return nil
}

func (m *MockProductRepository) sorted() []*domain.Product {
	out := make([]*domain.Product, 0, len(m.Products))
	for _, p := range m.Products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *MockProductRepository) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Products[p.ID] = p
	return nil
}

func (m *MockProductRepository) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	copied := *p
	m.Products[p.ID] = &copied
	return nil
}

func (m *MockProductRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.Products, id)
	return nil
}

func (m *MockProductRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MockProductRepository) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*domain.Product)
	for _, id := range ids {
		if p, ok := m.Products[id]; ok {
			copied := *p
			out[id] = &copied
		}
	}
	return out, nil
}

func (m *MockProductRepository) Count(_ context.Context, _ domain.ProductFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return 0, err
	}
	return len(m.Products), nil
}

func (m *MockProductRepository) List(_ context.Context, _ domain.ProductFilter, offset, limit int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	all := m.sorted()
	out := []*domain.Product{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

// MockCartRepository keeps items per user in insertion order.
type MockCartRepository struct {
	mu       sync.Mutex
	Items    map[uuid.UUID][]domain.CartItem
	ClearErr error
	GetCalls int
}

func newMockCartRepository() *MockCartRepository {
	return &MockCartRepository{Items: make(map[uuid.UUID][]domain.CartItem)}
}

func (m *MockCartRepository) GetItems(_ context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	return append([]domain.CartItem{}, m.Items[userID]...), nil
}

func (m *MockCartRepository) IncrementItem(_ context.Context, userID, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := domain.Cart{UserID: userID, Items: m.Items[userID]}
	cart.Add(productID)
	m.Items[userID] = cart.Items
	return nil
}

func (m *MockCartRepository) RemoveItem(_ context.Context, userID, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := domain.Cart{UserID: userID, Items: m.Items[userID]}
	cart.Remove(productID)
	m.Items[userID] = cart.Items
	return nil
}

func (m *MockCartRepository) Clear(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Items[userID] = []domain.CartItem{}
	return nil
}

// MockOrderRepository stores orders by ID.
type MockOrderRepository struct {
	mu        sync.Mutex
	Orders    map[uuid.UUID]*domain.Order
	CreateErr error
}

func newMockOrderRepository(orders ...*domain.Order) *MockOrderRepository {
	m := &MockOrderRepository{Orders: make(map[uuid.UUID]*domain.Order)}
	for _, o := range orders {
		m.Orders[o.ID] = o
	}
	return m
}

func (m *MockOrderRepository) Create(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Orders[order.ID] = order
	return nil
}

func (m *MockOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *MockOrderRepository) FindByUser(_ context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Order{}
	for _, o := range m.Orders {
		if o.OwnedBy(userID) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MockProvider records every session request.
type MockProvider struct {
	Calls    int
	Requests []payment.SessionRequest
	Err      error
}

func (m *MockProvider) CreateCheckoutSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	m.Calls++
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &payment.Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

// MockPublisher captures published events.
type MockPublisher struct {
	Keys   []string
	Events []any
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, key string, event any) error {
	if m.Err != nil {
		return m.Err
	}
	m.Keys = append(m.Keys, key)
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

func product(title string, price domain.Money, createdAt time.Time) *domain.Product {
	return &domain.Product{
		ID:          uuid.New(),
		Title:       title,
		Description: title + " description",
		Price:       price,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func newTestCartService(products *MockProductRepository, carts *MockCartRepository) *cartService {
	svc := NewCartService(carts, products, nil, zap.NewNop()).(*cartService)
	svc.newBackOff = zeroBackOff
	return svc
}
