package transport

import (
	"net/http"

	"storefront/internal/middleware"
)

// View names understood by the storefront front end.
const (
	ViewIndex         = "shop/index"
	ViewProductList   = "shop/product-list"
	ViewProductDetail = "shop/product-detail"
	ViewCart          = "shop/cart"
	ViewCheckout      = "shop/checkout"
	ViewOrders        = "shop/orders"
)

// Renderer writes a named view with its data bag.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, view string, data any)
}

// ViewResponse is the JSON form of a rendered view.
type ViewResponse struct {
	View string `json:"view"`
	Data any    `json:"data"`
}

// JSONRenderer hands the view to the client as JSON and leaves templating to it.
type JSONRenderer struct{}

func (JSONRenderer) Render(w http.ResponseWriter, _ *http.Request, view string, data any) {
	middleware.RespondWithJSON(w, http.StatusOK, ViewResponse{View: view, Data: data})
}
