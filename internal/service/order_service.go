package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/messaging"
	"storefront/internal/repository"
	"storefront/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// OrderService turns a paid cart into an order.
type OrderService interface {
	FinalizeOrder(ctx context.Context, user *domain.User) (*domain.Order, error)
	ListOrders(ctx context.Context, user *domain.User) ([]*domain.Order, error)
}

type orderService struct {
	carts     CartService
	orderRepo repository.OrderRepository
	publisher messaging.Publisher
	metrics   *telemetry.ShopMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService. publisher may be nil.
func NewOrderService(
	carts CartService,
	orderRepo repository.OrderRepository,
	publisher messaging.Publisher,
	metrics *telemetry.ShopMetrics,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		carts:     carts,
		orderRepo: orderRepo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FinalizeOrder snapshots the cart into an order, persists it and then clears the cart.
//
// If persisting fails the cart is untouched. If clearing fails the order already
// exists: the order is returned together with an error wrapping ErrCartNotCleared.
func (s *orderService) FinalizeOrder(ctx context.Context, user *domain.User) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "order.finalize")
	defer span.End()

	lines, err := s.carts.GetCartForCheckout(ctx, user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	order := domain.NewOrder(user, lines, s.now())
	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	if err := s.orderRepo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order not persisted")
		s.logger.Error("Failed to persist order", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	s.metrics.OrdersPlaced.Add(ctx, 1)

	s.publishPlaced(ctx, order, lines)

	if err := s.carts.ClearCart(ctx, user); err != nil {
		s.metrics.OrphanedOrders.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "cart not cleared")
		s.logger.Error("Order placed but cart not cleared",
			zap.Error(err),
			zap.String("order_id", order.ID.String()),
			zap.String("user_id", user.ID.String()),
		)
		return order, fmt.Errorf("%w: order %s: %w", ErrCartNotCleared, order.ID, err)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.Int("lines", len(order.Products)),
	)

	return order, nil
}

func (s *orderService) publishPlaced(ctx context.Context, order *domain.Order, lines []domain.CartLine) {
	if s.publisher == nil {
		return
	}

	event := domain.OrderPlacedEvent{
		OrderID:   order.ID,
		UserID:    order.User.UserID,
		Email:     order.User.Email,
		Products:  order.Products,
		Total:     domain.CartTotal(lines),
		Timestamp: order.CreatedAt,
	}

	if err := s.publisher.Publish(ctx, order.ID.String(), event); err != nil {
		s.logger.Warn("Failed to publish order placed event",
			zap.Error(err),
			zap.String("order_id", order.ID.String()),
		)
	}
}

// ListOrders returns the user's orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, user *domain.User) ([]*domain.Order, error) {
	orders, err := s.orderRepo.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
