package transport

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/pagination"
	"storefront/internal/repository"
	"storefront/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	errInvalidID        = errors.New("invalid id")
	errNotAuthenticated = errors.New("not authenticated")
)

// writeError maps a handler error to its status and writes the JSON error envelope.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status, message := classify(err)

	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	middleware.RespondWithError(w, status, message)
}

func classify(err error) (int, string) {
	var validationErrors validator.ValidationErrors

	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, repository.ErrOrderNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, service.ErrUnauthorizedOrder):
		return http.StatusForbidden, "order belongs to another user"
	case errors.Is(err, errNotAuthenticated):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest, "cart is empty"
	case errors.Is(err, pagination.ErrInvalidPage):
		return http.StatusBadRequest, "page must be a positive integer"
	case errors.Is(err, errInvalidID):
		return http.StatusBadRequest, "invalid id"
	case errors.Is(err, middleware.ErrMalformedBody):
		return http.StatusBadRequest, "invalid request body"
	case errors.As(err, &validationErrors):
		return http.StatusBadRequest, "validation failed"
	case errors.Is(err, service.ErrPaymentProvider):
		return http.StatusBadGateway, "payment provider unavailable"
	case errors.Is(err, service.ErrCartNotCleared):
		return http.StatusInternalServerError, "order placed but cart could not be cleared"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
