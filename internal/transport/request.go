package transport

import (
	"mime"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"

	"github.com/google/uuid"
)

// CartItemRequest names the product a cart mutation applies to.
type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

// decodeCartItem accepts either a JSON body or an HTML form post.
func decodeCartItem(r *http.Request) (uuid.UUID, error) {
	var req CartItemRequest

	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return uuid.Nil, middleware.ErrMalformedBody
		}
		req.ProductID = r.PostForm.Get("productId")
		if err := middleware.ValidateRequest(&req); err != nil {
			return uuid.Nil, err
		}
	} else if err := middleware.DecodeAndValidate(r, &req); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(req.ProductID)
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// currentUser returns the user placed in the context by the auth middleware.
func currentUser(r *http.Request) (*domain.User, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, errNotAuthenticated
	}
	return user, nil
}
