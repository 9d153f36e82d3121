package transport

import (
	"net/http"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/pagination"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductListData is the data bag of the product listing views.
type ProductListData struct {
	Products   []*domain.Product `json:"prods"`
	Pagination pagination.Page   `json:"pagination"`
	TotalCount int               `json:"total_count"`
}

// ProductDetailData is the data bag of the product detail view.
type ProductDetailData struct {
	Product *domain.Product `json:"product"`
}

// ShopHandler serves the public catalog.
type ShopHandler struct {
	catalog  service.CatalogService
	renderer Renderer
	logger   *zap.Logger
}

// NewShopHandler creates a new ShopHandler
func NewShopHandler(catalog service.CatalogService, renderer Renderer, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{
		catalog:  catalog,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers the catalog routes
func (h *ShopHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)
}

// Index renders the first catalog page, or the one named by ?page.
func (h *ShopHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, ViewIndex)
}

// ListProducts renders one page of the catalog. ?q narrows by title or description.
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, ViewProductList)
}

func (h *ShopHandler) renderPage(w http.ResponseWriter, r *http.Request, view string) {
	page, err := pagination.ParsePage(r.URL.Query().Get("page"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	filter := domain.ProductFilter{Query: strings.TrimSpace(r.URL.Query().Get("q"))}

	result, err := h.catalog.ListProducts(r.Context(), page, filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.renderer.Render(w, r, view, ProductListData{
		Products:   result.Products,
		Pagination: result.Pagination,
		TotalCount: result.TotalCount,
	})
}

// GetProduct renders a single product.
func (h *ShopHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, h.logger, errInvalidID)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.renderer.Render(w, r, ViewProductDetail, ProductDetailData{Product: product})
}
