package transport

import (
	"context"
	"io"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/pagination"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeCatalog struct {
	products  map[uuid.UUID]*domain.Product
	pageSize  int
	err       error
	lastPage  int
	lastQuery string
}

func (f *fakeCatalog) ListProducts(_ context.Context, page int, filter domain.ProductFilter) (*service.ProductPage, error) {
	f.lastPage = page
	f.lastQuery = filter.Query
	if f.err != nil {
		return nil, f.err
	}
	all := make([]*domain.Product, 0, len(f.products))
	for _, p := range f.products {
		all = append(all, p)
	}
	p := pagination.Paginate(len(all), page, f.pageSize)
	window := []*domain.Product{}
	for i := p.Skip; i < len(all) && i < p.Skip+p.Take; i++ {
		window = append(window, all[i])
	}
	return &service.ProductPage{Products: window, Pagination: p, TotalCount: len(all)}, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, repository.ErrProductNotFound
}

type fakeCart struct {
	lines   []domain.CartLine
	added   []uuid.UUID
	removed []uuid.UUID
	err     error
}

func (f *fakeCart) GetCart(context.Context, *domain.User) ([]domain.CartLine, error) {
	return f.lines, f.err
}

func (f *fakeCart) GetCartForCheckout(context.Context, *domain.User) ([]domain.CartLine, error) {
	return f.lines, f.err
}

func (f *fakeCart) AddToCart(_ context.Context, user *domain.User, productID uuid.UUID) (*domain.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = append(f.added, productID)
	return &domain.Cart{UserID: user.ID}, nil
}

func (f *fakeCart) RemoveFromCart(_ context.Context, user *domain.User, productID uuid.UUID) (*domain.Cart, error) {
	f.removed = append(f.removed, productID)
	return &domain.Cart{UserID: user.ID}, nil
}

func (f *fakeCart) ClearCart(context.Context, *domain.User) error { return nil }

type fakeCheckout struct {
	session *service.CheckoutSession
	err     error
}

func (f *fakeCheckout) CreateCheckoutSession(context.Context, *domain.User) (*service.CheckoutSession, error) {
	return f.session, f.err
}

type fakeOrders struct {
	order     *domain.Order
	orders    []*domain.Order
	err       error
	finalized int
}

func (f *fakeOrders) FinalizeOrder(context.Context, *domain.User) (*domain.Order, error) {
	f.finalized++
	return f.order, f.err
}

func (f *fakeOrders) ListOrders(context.Context, *domain.User) ([]*domain.Order, error) {
	return f.orders, f.err
}

// fakeInvoices writes body in chunks, then fails with errAfter if set.
type fakeInvoices struct {
	body     []byte
	err      error
	errAfter error
}

func (f *fakeInvoices) GenerateInvoice(_ context.Context, _ uuid.UUID, _ *domain.User, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	if _, err := w.Write(f.body); err != nil {
		return err
	}
	return f.errAfter
}

// asUser stands in for the auth middleware.
func asUser(user *domain.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), user)))
		})
	}
}

func passThrough(next http.Handler) http.Handler { return next }

type testApp struct {
	router   chi.Router
	user     *domain.User
	catalog  *fakeCatalog
	cart     *fakeCart
	checkout *fakeCheckout
	orders   *fakeOrders
	invoices *fakeInvoices
}

func newTestApp() *testApp {
	app := &testApp{
		router:   chi.NewRouter(),
		user:     &domain.User{ID: uuid.New(), Email: "buyer@example.com", Role: "user"},
		catalog:  &fakeCatalog{products: map[uuid.UUID]*domain.Product{}, pageSize: 2},
		cart:     &fakeCart{},
		checkout: &fakeCheckout{},
		orders:   &fakeOrders{},
		invoices: &fakeInvoices{},
	}

	logger := zap.NewNop()
	renderer := JSONRenderer{}

	NewShopHandler(app.catalog, renderer, logger).RegisterRoutes(app.router)
	app.router.Group(func(r chi.Router) {
		r.Use(asUser(app.user))
		NewCartHandler(app.cart, renderer, logger).RegisterRoutes(r, passThrough)
		NewCheckoutHandler(app.checkout, app.orders, renderer, logger).RegisterRoutes(r, passThrough)
		NewOrderHandler(app.orders, app.invoices, renderer, logger).RegisterRoutes(r)
	})

	return app
}
