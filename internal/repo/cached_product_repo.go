package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/cache"
	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/query"
)

// CachedProductRepository 带缓存的商品仓储，只缓存按ID读取，写操作后删除对应键
type CachedProductRepository struct {
	repo   ProductRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(repo ProductRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) ProductRepository {
	return &CachedProductRepository{repo: repo, cache: c, ttl: ttl, logger: logger}
}

func productCacheKey(id int64) string {
	return fmt.Sprintf("product:id:%d", id)
}

// Create 创建商品
func (r *CachedProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.repo.Create(ctx, product)
}

// GetByID 根据ID获取商品（带缓存），缓存故障时回退到数据库
func (r *CachedProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := productCacheKey(id)

	var product domain.Product
	err := r.cache.Get(ctx, key, &product)
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.logger.Warn("product cache read failed", zap.String("key", key), zap.Error(err))
	}

	result, err := r.repo.GetByID(ctx, id)
	if err != nil || result == nil {
		return result, err
	}

	if err := r.cache.Set(ctx, key, result, r.ttl); err != nil {
		r.logger.Warn("product cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

// Update 更新商品（清除相关缓存）
func (r *CachedProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := r.repo.Update(ctx, product); err != nil {
		return err
	}
	r.evict(ctx, product.ID)
	return nil
}

// Delete 删除商品（清除相关缓存）
func (r *CachedProductRepository) Delete(ctx context.Context, id int64) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

// List 获取商品列表（不缓存，因为参数组合太多）
func (r *CachedProductRepository) List(ctx context.Context, l query.List) ([]*domain.Product, int64, error) {
	return r.repo.List(ctx, l)
}

func (r *CachedProductRepository) evict(ctx context.Context, id int64) {
	if err := r.cache.Del(ctx, productCacheKey(id)); err != nil {
		r.logger.Warn("product cache evict failed", zap.Int64("product_id", id), zap.Error(err))
	}
}
