package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anirudhsingh811/order-choreography/internal/cache"
	"github.com/anirudhsingh811/order-choreography/internal/models"
)

// CachedOrderRepository decorates OrderRepository with redis-backed reads.
// Orders are write-once, so cached entries only ever go stale on the list key.
type CachedOrderRepository struct {
	repo   *OrderRepository
	cache  *cache.RedisCache
	logger *zap.Logger
}

func NewCachedOrderRepository(repo *OrderRepository, cache *cache.RedisCache, logger *zap.Logger) *CachedOrderRepository {
	return &CachedOrderRepository{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func orderKey(id string) string {
	return fmt.Sprintf("order:%s", id)
}

func allOrdersKey() string {
	return "orders:all"
}

// Create inserts through to the database and invalidates the list cache.
func (r *CachedOrderRepository) Create(order *models.Order) error {
	if err := r.repo.Create(order); err != nil {
		return err
	}

	ctx := context.Background()
	if err := r.cache.Delete(ctx, allOrdersKey()); err != nil {
		r.logger.Warn("⚠️ Failed to invalidate orders cache", zap.Error(err))
	}

	return nil
}

// GetAll returns all orders, preferring the cache.
func (r *CachedOrderRepository) GetAll() ([]models.Order, error) {
	ctx := context.Background()
	cacheKey := allOrdersKey()

	var orders []models.Order
	if err := r.cache.Get(ctx, cacheKey, &orders); err == nil {
		r.logger.Debug("📦 Cache HIT: all orders")
		return orders, nil
	}

	orders, err := r.repo.GetAll()
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, orders); err != nil {
		r.logger.Warn("⚠️ Failed to cache orders", zap.Error(err))
	}

	return orders, nil
}

// GetByID returns a single order, preferring the cache.
func (r *CachedOrderRepository) GetByID(id string) (*models.Order, error) {
	ctx := context.Background()
	cacheKey := orderKey(id)

	var order models.Order
	err := r.cache.Get(ctx, cacheKey, &order)
	if err == nil {
		r.logger.Debug("📦 Cache HIT", zap.String("order_id", id))
		return &order, nil
	}
	if err != redis.Nil {
		r.logger.Warn("⚠️ Cache error", zap.Error(err))
	}

	o, err := r.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, nil
	}

	if err := r.cache.Set(ctx, cacheKey, o); err != nil {
		r.logger.Warn("⚠️ Failed to cache order", zap.Error(err))
	}

	return o, nil
}
