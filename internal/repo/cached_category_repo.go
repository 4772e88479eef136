package repo

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/cache"
	"github.com/MorseWayne/admin_panel/internal/domain"
)

const categoryListCacheKey = "categories:all"

// CachedCategoryRepository 缓存完整的分类列表，新增分类后失效
type CachedCategoryRepository struct {
	repo   CategoryRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCategoryRepository 创建带缓存的分类仓储
func NewCachedCategoryRepository(repo CategoryRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) CategoryRepository {
	return &CachedCategoryRepository{repo: repo, cache: c, ttl: ttl, logger: logger}
}

// Create 创建分类并清除列表缓存
func (r *CachedCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if err := r.repo.Create(ctx, category); err != nil {
		return err
	}
	if err := r.cache.Del(ctx, categoryListCacheKey); err != nil {
		r.logger.Warn("category cache evict failed", zap.Error(err))
	}
	return nil
}

// GetByID 直接读取数据库
func (r *CachedCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	return r.repo.GetByID(ctx, id)
}

// List 返回分类列表（带缓存）
func (r *CachedCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	var categories []*domain.Category
	err := r.cache.Get(ctx, categoryListCacheKey, &categories)
	if err == nil {
		return categories, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		r.logger.Warn("category cache read failed", zap.Error(err))
	}

	categories, err = r.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, categoryListCacheKey, categories, r.ttl); err != nil {
		r.logger.Warn("category cache write failed", zap.Error(err))
	}
	return categories, nil
}
