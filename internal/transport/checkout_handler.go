package transport

import (
	"errors"
	"net/http"

	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutHandler drives the payment round trip.
type CheckoutHandler struct {
	checkout service.CheckoutService
	orders   service.OrderService
	renderer Renderer
	logger   *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkout service.CheckoutService, orders service.OrderService, renderer Renderer, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		orders:   orders,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers the checkout routes. Session creation and order
// placement go through limit.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Route("/checkout", func(r chi.Router) {
		r.With(limit).Get("/", h.GetCheckout)
		r.With(limit).Get("/success", h.Success)
		r.Get("/cancel", h.Cancel)
	})
}

// GetCheckout opens a payment session for the cart and renders the checkout page.
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	session, err := h.checkout.CreateCheckoutSession(r.Context(), user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.renderer.Render(w, r, ViewCheckout, session)
}

// Success is the provider's return URL: the cart becomes an order.
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	order, err := h.orders.FinalizeOrder(r.Context(), user)
	if err != nil {
		if errors.Is(err, service.ErrCartNotCleared) && order != nil {
			h.logger.Error("Order placed with stale cart",
				zap.String("order_id", order.ID.String()),
				zap.String("user_id", user.ID.String()),
			)
		}
		writeError(w, r, h.logger, err)
		return
	}

	http.Redirect(w, r, "/orders", http.StatusSeeOther)
}

// Cancel sends the user back to the checkout page.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/checkout", http.StatusSeeOther)
}
