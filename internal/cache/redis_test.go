package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client), mr
}

func TestGet_Hit(t *testing.T) {
	cache, mr := setupTestRedis(t)
	userID := uuid.New()
	productID := uuid.New()

	data, err := json.Marshal(&domain.Cart{
		UserID: userID,
		Items:  []domain.CartItem{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey(userID), string(data)))

	cart, err := cache.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, cart.UserID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, productID, cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestGet_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	cart, err := cache.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, cart)
}

func TestGet_CorruptEntry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	userID := uuid.New()
	require.NoError(t, mr.Set(cacheKey(userID), `{"user_id":`))

	_, err := cache.Get(context.Background(), userID)
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestSet_StoresWithJitteredTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)
	userID := uuid.New()

	err := cache.Set(context.Background(), &domain.Cart{UserID: userID, Items: []domain.CartItem{}})
	require.NoError(t, err)

	assert.True(t, mr.Exists(cacheKey(userID)))
	ttl := mr.TTL(cacheKey(userID))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)
}

func TestDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	userID := uuid.New()
	require.NoError(t, mr.Set(cacheKey(userID), "{}"))

	require.NoError(t, cache.Delete(context.Background(), userID))
	assert.False(t, mr.Exists(cacheKey(userID)))

	assert.NoError(t, cache.Delete(context.Background(), uuid.New()))
}

func TestGet_RedisDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, err := cache.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
