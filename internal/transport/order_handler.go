package transport

import (
	"fmt"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/invoice"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrdersData is the data bag of the orders view.
type OrdersData struct {
	Orders []*domain.Order `json:"orders"`
}

// OrderHandler lists orders and serves their invoices.
type OrderHandler struct {
	orders   service.OrderService
	invoices service.InvoiceService
	renderer Renderer
	logger   *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders service.OrderService, invoices service.InvoiceService, renderer Renderer, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		invoices: invoices,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers the order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{orderID}", h.GetInvoice)
}

// ListOrders renders the user's orders, newest first.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), user)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.renderer.Render(w, r, ViewOrders, OrdersData{Orders: orders})
}

// GetInvoice streams the invoice PDF of one of the user's orders.
func (h *OrderHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, h.logger, errInvalidID)
		return
	}

	pdf := &pdfResponse{w: w, filename: invoice.FileName(orderID)}
	if err := h.invoices.GenerateInvoice(r.Context(), orderID, user, pdf); err != nil {
		if pdf.started {
			// headers are gone; the client sees a truncated body
			h.logger.Error("Invoice stream aborted",
				zap.Error(err),
				zap.String("order_id", orderID.String()),
			)
			return
		}
		writeError(w, r, h.logger, err)
	}
}

// pdfResponse sets the PDF headers on the first write, so errors raised
// before any output can still be answered with the JSON envelope.
type pdfResponse struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (p *pdfResponse) Write(b []byte) (int, error) {
	if !p.started {
		p.started = true
		p.w.Header().Set("Content-Type", "application/pdf")
		p.w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", p.filename))
		p.w.WriteHeader(http.StatusOK)
	}
	return p.w.Write(b)
}
