package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartService manages the per-user cart.
type CartService interface {
	GetCart(ctx context.Context, user *domain.User) ([]domain.CartLine, error)
	// GetCartForCheckout reads the cart from the store, bypassing the cache.
	GetCartForCheckout(ctx context.Context, user *domain.User) ([]domain.CartLine, error)
	AddToCart(ctx context.Context, user *domain.User, productID uuid.UUID) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, user *domain.User, productID uuid.UUID) (*domain.Cart, error)
	ClearCart(ctx context.Context, user *domain.User) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	cache       cache.CartCache
	sfg         singleflight.Group
	// epoch advances on every invalidation; cache fills that span one are undone
	epoch       atomic.Uint64
	newBackOff  backOffFactory
	logger      *zap.Logger
}

// NewCartService creates a new instance of CartService. cartCache may be nil.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	cartCache cache.CartCache,
	logger *zap.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cache:       cartCache,
		newBackOff:  defaultBackOff,
		logger:      logger,
	}
}

// GetCart joins every cart item with its current product.
// Items whose product has since been deleted are left out.
func (s *cartService) GetCart(ctx context.Context, user *domain.User) ([]domain.CartLine, error) {
	cart, err := s.loadCart(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.resolveLines(ctx, user, cart)
}

func (s *cartService) GetCartForCheckout(ctx context.Context, user *domain.User) ([]domain.CartLine, error) {
	cart, err := s.readCart(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.resolveLines(ctx, user, cart)
}

func (s *cartService) resolveLines(ctx context.Context, user *domain.User, cart *domain.Cart) ([]domain.CartLine, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := retryRead(ctx, s.newBackOff, func() (map[uuid.UUID]*domain.Product, error) {
		return s.productRepo.FindByIDs(ctx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart products: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			s.logger.Warn("Dropping cart item for missing product",
				zap.String("user_id", user.ID.String()),
				zap.String("product_id", item.ProductID.String()),
			)
			continue
		}
		lines = append(lines, domain.CartLine{Product: *product, Quantity: item.Quantity})
	}

	return lines, nil
}

// AddToCart adds one unit of an existing product.
func (s *cartService) AddToCart(ctx context.Context, user *domain.User, productID uuid.UUID) (*domain.Cart, error) {
	_, err := retryRead(ctx, s.newBackOff, func() (*domain.Product, error) {
		return s.productRepo.FindByID(ctx, productID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.IncrementItem(ctx, user.ID, productID); err != nil {
		s.logger.Error("Failed to add cart item", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, err
	}
	s.invalidate(user.ID)

	return s.readCart(ctx, user.ID)
}

// RemoveFromCart drops the whole item. Removing a product not in the cart is a no-op.
func (s *cartService) RemoveFromCart(ctx context.Context, user *domain.User, productID uuid.UUID) (*domain.Cart, error) {
	if err := s.cartRepo.RemoveItem(ctx, user.ID, productID); err != nil {
		s.logger.Error("Failed to remove cart item", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, err
	}
	s.invalidate(user.ID)

	return s.readCart(ctx, user.ID)
}

func (s *cartService) ClearCart(ctx context.Context, user *domain.User) error {
	if err := s.cartRepo.Clear(ctx, user.ID); err != nil {
		s.logger.Error("Failed to clear cart", zap.Error(err), zap.String("user_id", user.ID.String()))
		return err
	}
	s.invalidate(user.ID)

	return nil
}

// loadCart reads raw items through the cache. Concurrent misses for one user share a single store read.
func (s *cartService) loadCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	key := userID.String()
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		if s.cache != nil {
			cart, err := s.cache.Get(ctx, userID)
			if err == nil {
				return cart, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				s.logger.Warn("Cart cache read failed", zap.Error(err))
			}
		}

		epoch := s.epoch.Load()
		cart, err := s.readCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		s.fillCache(userID, cart, epoch)
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	// singleflight shares the pointer between callers
	shared := v.(*domain.Cart)
	return &domain.Cart{UserID: shared.UserID, Items: append([]domain.CartItem{}, shared.Items...)}, nil
}

// readCart goes straight to the store.
func (s *cartService) readCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	items, err := s.cartRepo.GetItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &domain.Cart{UserID: userID, Items: items}, nil
}

// fillCache stores a cart read at epoch. If an invalidation ran since, the
// read may predate a mutation, so the entry is dropped again.
func (s *cartService) fillCache(userID uuid.UUID, cart *domain.Cart, epoch uint64) {
	if s.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if s.epoch.Load() != epoch {
		return
	}
	if err := s.cache.Set(ctx, cart); err != nil {
		s.logger.Warn("Cart cache write failed", zap.Error(err))
		return
	}
	if s.epoch.Load() != epoch {
		if err := s.cache.Delete(ctx, userID); err != nil {
			s.logger.Warn("Cart cache invalidation failed", zap.Error(err), zap.String("user_id", userID.String()))
		}
	}
}

// invalidate must run after the store write it covers.
func (s *cartService) invalidate(userID uuid.UUID) {
	s.epoch.Add(1)
	s.sfg.Forget(userID.String())

	if s.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("Cart cache invalidation failed", zap.Error(err), zap.String("user_id", userID.String()))
	}
}
