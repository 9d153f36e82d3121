package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartData is the data bag of the cart view.
type CartData struct {
	Products []domain.CartLine `json:"products"`
	Total    domain.Money      `json:"totalSum"`
}

// CartHandler serves the signed-in user's cart.
type CartHandler struct {
	carts    service.CartService
	renderer Renderer
	logger   *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts service.CartService, renderer Renderer, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers the cart routes. Mutations go through limit.
func (h *CartHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Get("/cart", h.GetCart)
	r.With(limit).Post("/cart", h.AddToCart)
	r.With(limit).Post("/cart-delete-item", h.RemoveFromCart)
}

// GetCart renders the cart joined with current product data.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	lines, err := h.carts.GetCart(r.Context(), user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.renderer.Render(w, r, ViewCart, CartData{Products: lines, Total: domain.CartTotal(lines)})
}

// AddToCart adds one unit of productId and redirects to the cart.
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	productID, err := decodeCartItem(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.carts.AddToCart(r.Context(), user, productID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// RemoveFromCart drops productId from the cart and redirects to the cart.
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	productID, err := decodeCartItem(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.carts.RemoveFromCart(r.Context(), user, productID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}
