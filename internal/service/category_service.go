package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/apperr"
	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/repo"
)

// CategoryService 分类服务
type CategoryService interface {
	Create(ctx context.Context, req *domain.CreateCategoryRequest) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

type categoryService struct {
	categories repo.CategoryRepository
	logger     *zap.Logger
}

// NewCategoryService 创建分类服务实例
func NewCategoryService(categories repo.CategoryRepository, logger *zap.Logger) CategoryService {
	return &categoryService{categories: categories, logger: logger}
}

func (s *categoryService) Create(ctx context.Context, req *domain.CreateCategoryRequest) (*domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	c := &domain.Category{Name: name}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperr.Conflict("category already exists")
		}
		s.logger.Error("failed to create category", zap.Error(err))
		return nil, apperr.Unexpected(err)
	}

	s.logger.Info("category created", zap.Int64("category_id", c.ID), zap.String("name", c.Name))
	return c, nil
}

func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", zap.Error(err))
		return nil, apperr.Unexpected(err)
	}
	return categories, nil
}
