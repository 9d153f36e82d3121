package service

import (
	"context"
	"fmt"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("storefront/service")

// CheckoutSession is what the checkout page needs: the provider session and the priced cart.
type CheckoutSession struct {
	SessionID string            `json:"sessionId"`
	URL       string            `json:"url"`
	Lines     []domain.CartLine `json:"products"`
	Total     domain.Money      `json:"totalSum"`
}

// CheckoutService starts payment for the current cart. Nothing is persisted here;
// the order is written when the provider redirects back on success.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, user *domain.User) (*CheckoutSession, error)
}

type checkoutService struct {
	carts    CartService
	provider payment.Provider
	cfg      config.CheckoutConfig
	metrics  *telemetry.ShopMetrics
	logger   *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	carts CartService,
	provider payment.Provider,
	cfg config.CheckoutConfig,
	metrics *telemetry.ShopMetrics,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		carts:    carts,
		provider: provider,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *checkoutService) CreateCheckoutSession(ctx context.Context, user *domain.User) (*CheckoutSession, error) {
	ctx, span := tracer.Start(ctx, "checkout.create_session")
	defer span.End()

	lines, err := s.carts.GetCartForCheckout(ctx, user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	total := domain.CartTotal(lines)
	span.SetAttributes(
		attribute.Int("cart.lines", len(lines)),
		attribute.Int64("cart.total_minor", int64(total)),
	)

	req := payment.SessionRequest{
		PaymentMethods: []string{"card"},
		LineItems:      make([]payment.LineItem, 0, len(lines)),
		Mode:           payment.ModePayment,
		SuccessURL:     s.cfg.SuccessURL,
		CancelURL:      s.cfg.CancelURL,
	}
	for _, line := range lines {
		req.LineItems = append(req.LineItems, payment.LineItem{
			Name:        line.Product.Title,
			Description: line.Product.Description,
			UnitAmount:  int64(line.Product.Price),
			Currency:    s.cfg.Currency,
			Quantity:    int64(line.Quantity),
		})
	}

	// At most one attempt; session creation is not idempotent.
	session, err := s.provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		s.metrics.CheckoutFailures.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment provider failed")
		s.logger.Error("Failed to create checkout session",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return nil, fmt.Errorf("%w: %w", ErrPaymentProvider, err)
	}

	s.metrics.CheckoutSessions.Add(ctx, 1, metric.WithAttributes(attribute.String("currency", s.cfg.Currency)))
	s.logger.Info("Checkout session created",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", session.ID),
		zap.Stringer("total", total),
	)

	return &CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
		Lines:     lines,
		Total:     total,
	}, nil
}
