package cache

import (
	"context"
	"errors"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// CartCache holds raw cart items per user. Joined cart lines are never cached.
type CartCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	Set(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

var ErrCacheMiss = errors.New("cache miss")
