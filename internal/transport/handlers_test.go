package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) (string, json.RawMessage) {
	t.Helper()
	var resp struct {
		View string          `json:"view"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.View, resp.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func (a *testApp) seedProducts(n int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		p := &domain.Product{ID: uuid.New(), Title: fmt.Sprintf("Product %d", i), Price: domain.Money(100 * (i + 1))}
		a.catalog.products[p.ID] = p
		ids = append(ids, p.ID)
	}
	return ids
}

func TestShop_IndexAndListShareThePage(t *testing.T) {
	app := newTestApp()
	app.seedProducts(5)

	for path, view := range map[string]string{"/": ViewIndex, "/products?page=3": ViewProductList} {
		w := app.do(httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)

		name, data := decodeView(t, w)
		assert.Equal(t, view, name)

		var bag struct {
			Prods      []domain.Product `json:"prods"`
			TotalCount int              `json:"total_count"`
			Pagination struct {
				LastPage int `json:"last_page"`
			} `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(data, &bag))
		assert.Equal(t, 5, bag.TotalCount)
		assert.Equal(t, 3, bag.Pagination.LastPage)
	}

	assert.Equal(t, 3, app.catalog.lastPage)
}

func TestShop_PageParsing(t *testing.T) {
	app := newTestApp()

	w := app.do(httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, app.catalog.lastPage)

	for _, raw := range []string{"0", "-2", "abc"} {
		w := app.do(httptest.NewRequest(http.MethodGet, "/products?page="+raw, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestShop_SearchQueryIsPassedThrough(t *testing.T) {
	app := newTestApp()

	app.do(httptest.NewRequest(http.MethodGet, "/products?q="+url.QueryEscape("  red mug "), nil))
	assert.Equal(t, "red mug", app.catalog.lastQuery)
}

func TestShop_ProductDetail(t *testing.T) {
	app := newTestApp()
	id := app.seedProducts(1)[0]

	w := app.do(httptest.NewRequest(http.MethodGet, "/products/"+id.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	name, _ := decodeView(t, w)
	assert.Equal(t, ViewProductDetail, name)

	w = app.do(httptest.NewRequest(http.MethodGet, "/products/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product not found", decodeError(t, w).Message)

	w = app.do(httptest.NewRequest(http.MethodGet, "/products/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShop_StoreFailureIs500(t *testing.T) {
	app := newTestApp()
	app.catalog.err = errors.New("connection refused")

	w := app.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w).Message)
}

func TestCart_View(t *testing.T) {
	app := newTestApp()
	app.cart.lines = []domain.CartLine{
		{Product: domain.Product{ID: uuid.New(), Title: "Book", Price: 1000}, Quantity: 2},
		{Product: domain.Product{ID: uuid.New(), Title: "Pen", Price: 500}, Quantity: 1},
	}

	w := app.do(httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusOK, w.Code)

	name, data := decodeView(t, w)
	assert.Equal(t, ViewCart, name)

	var bag struct {
		Total string `json:"totalSum"`
	}
	require.NoError(t, json.Unmarshal(data, &bag))
	assert.Equal(t, "25.00", bag.Total)
}

func TestCart_AddFromJSONAndForm(t *testing.T) {
	app := newTestApp()
	productID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"productId":"`+productID.String()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := app.do(req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cart", w.Header().Get("Location"))

	form := url.Values{"productId": {productID.String()}}
	req = httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = app.do(req)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	assert.Equal(t, []uuid.UUID{productID, productID}, app.cart.added)
}

func TestCart_AddRejectsBadInput(t *testing.T) {
	app := newTestApp()

	cases := map[string]string{
		"missing":   `{}`,
		"not uuid":  `{"productId":"42"}`,
		"malformed": `{"productId":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := app.do(req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, app.cart.added)
}

func TestCart_AddUnknownProductIs404(t *testing.T) {
	app := newTestApp()
	app.cart.err = repository.ErrProductNotFound

	req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"productId":"`+uuid.NewString()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := app.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCart_Remove(t *testing.T) {
	app := newTestApp()
	productID := uuid.New()

	form := url.Values{"productId": {productID.String()}}
	req := httptest.NewRequest(http.MethodPost, "/cart-delete-item", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := app.do(req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cart", w.Header().Get("Location"))
	assert.Equal(t, []uuid.UUID{productID}, app.cart.removed)
}

func TestCart_RequiresUser(t *testing.T) {
	r := chi.NewRouter()
	NewCartHandler(&fakeCart{}, JSONRenderer{}, zap.NewNop()).RegisterRoutes(r, passThrough)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckout_RendersSession(t *testing.T) {
	app := newTestApp()
	app.checkout.session = &service.CheckoutSession{SessionID: "cs_1", URL: "https://pay.example.com/cs_1", Total: 2500}

	w := app.do(httptest.NewRequest(http.MethodGet, "/checkout", nil))
	require.Equal(t, http.StatusOK, w.Code)

	name, data := decodeView(t, w)
	assert.Equal(t, ViewCheckout, name)

	var bag struct {
		SessionID string `json:"sessionId"`
		Total     string `json:"totalSum"`
	}
	require.NoError(t, json.Unmarshal(data, &bag))
	assert.Equal(t, "cs_1", bag.SessionID)
	assert.Equal(t, "25.00", bag.Total)
}

func TestCheckout_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrEmptyCart, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", service.ErrPaymentProvider, errors.New("card_declined")), http.StatusBadGateway},
	}

	for _, tt := range tests {
		app := newTestApp()
		app.checkout.err = tt.err

		w := app.do(httptest.NewRequest(http.MethodGet, "/checkout", nil))
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
	}
}

func TestCheckout_SuccessPlacesOrder(t *testing.T) {
	app := newTestApp()
	app.orders.order = &domain.Order{ID: uuid.New()}

	w := app.do(httptest.NewRequest(http.MethodGet, "/checkout/success", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/orders", w.Header().Get("Location"))
	assert.Equal(t, 1, app.orders.finalized)
}

func TestCheckout_SuccessWithUnclearedCartIs500(t *testing.T) {
	app := newTestApp()
	app.orders.order = &domain.Order{ID: uuid.New()}
	app.orders.err = fmt.Errorf("%w: %w", service.ErrCartNotCleared, errors.New("timeout"))

	w := app.do(httptest.NewRequest(http.MethodGet, "/checkout/success", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "order placed but cart could not be cleared", decodeError(t, w).Message)
}

func TestCheckout_Cancel(t *testing.T) {
	app := newTestApp()

	w := app.do(httptest.NewRequest(http.MethodGet, "/checkout/cancel", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Zero(t, app.orders.finalized)
}

func TestOrders_List(t *testing.T) {
	app := newTestApp()
	app.orders.orders = []*domain.Order{{ID: uuid.New(), CreatedAt: time.Now()}}

	w := app.do(httptest.NewRequest(http.MethodGet, "/orders", nil))
	require.Equal(t, http.StatusOK, w.Code)

	name, data := decodeView(t, w)
	assert.Equal(t, ViewOrders, name)

	var bag OrdersData
	require.NoError(t, json.Unmarshal(data, &bag))
	assert.Len(t, bag.Orders, 1)
}

func TestOrders_InvoiceStreamsPDF(t *testing.T) {
	app := newTestApp()
	app.invoices.body = []byte("%PDF-1.3 fake")
	orderID := uuid.New()

	w := app.do(httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="invoice-`+orderID.String()+`.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3 fake", w.Body.String())
}

func TestOrders_InvoiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrUnauthorizedOrder, http.StatusForbidden},
		{repository.ErrOrderNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		app := newTestApp()
		app.invoices.err = tt.err

		w := app.do(httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil))
		assert.Equal(t, tt.status, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}

	app := newTestApp()
	w := app.do(httptest.NewRequest(http.MethodGet, "/orders/nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrders_InvoiceFailureAfterStreamKeepsHeaders(t *testing.T) {
	app := newTestApp()
	app.invoices.body = []byte("%PDF-partial")
	app.invoices.errAfter = errors.New("render failed")

	w := app.do(httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-partial", w.Body.String())
}
