package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/apperr"
	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/query"
	"github.com/MorseWayne/admin_panel/internal/repo"
)

const (
	msgProductNotFound = "product not found"
	msgUnknownCategory = "category does not exist"
)

// ProductService 定义商品服务接口
type ProductService interface {
	Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, id int64, req *domain.UpdateProductRequest) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, req query.PageRequest) (*domain.ProductListResponse, error)
}

// productService 实现ProductService接口
type productService struct {
	products   repo.ProductRepository
	categories repo.CategoryRepository
	logger     *zap.Logger
}

// NewProductService 创建商品服务实例
func NewProductService(products repo.ProductRepository, categories repo.CategoryRepository, logger *zap.Logger) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

// requireCategory 分类必须存在，否则视为校验错误
func (s *productService) requireCategory(ctx context.Context, id int64) error {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get category", zap.Int64("category_id", id), zap.Error(err))
		return apperr.Unexpected(err)
	}
	if c == nil {
		return apperr.Validation(msgUnknownCategory)
	}
	return nil
}

// Create 创建商品
func (s *productService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error) {
	if req.Price < 0 {
		return nil, apperr.Validation("price must not be negative")
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		CategoryID:  req.CategoryID,
	}
	if err := s.products.Create(ctx, product); err != nil {
		// 检查与插入之间分类被删除时由外键兜底
		if errors.Is(err, repo.ErrReference) {
			return nil, apperr.Validation(msgUnknownCategory)
		}
		s.logger.Error("failed to create product", zap.Error(err))
		return nil, apperr.Unexpected(err)
	}

	s.logger.Info("product created", zap.Int64("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

// Get 获取商品详情
func (s *productService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get product", zap.Int64("product_id", id), zap.Error(err))
		return nil, apperr.Unexpected(err)
	}
	if product == nil {
		return nil, apperr.NotFound(msgProductNotFound)
	}
	return product, nil
}

// Update 更新商品，nil 字段保持原值
func (s *productService) Update(ctx context.Context, id int64, req *domain.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, apperr.Validation("price must not be negative")
		}
		product.Price = *req.Price
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if err := s.requireCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}

	if err := s.products.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, apperr.NotFound(msgProductNotFound)
		case errors.Is(err, repo.ErrReference):
			return nil, apperr.Validation(msgUnknownCategory)
		}
		s.logger.Error("failed to update product", zap.Int64("product_id", id), zap.Error(err))
		return nil, apperr.Unexpected(err)
	}

	s.logger.Info("product updated", zap.Int64("product_id", id))
	return s.Get(ctx, id)
}

// Delete 删除商品
func (s *productService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound(msgProductNotFound)
		}
		s.logger.Error("failed to delete product", zap.Int64("product_id", id), zap.Error(err))
		return apperr.Unexpected(err)
	}
	s.logger.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

// List 获取商品列表
func (s *productService) List(ctx context.Context, req query.PageRequest) (*domain.ProductListResponse, error) {
	if c := strings.TrimSpace(req.Filters["category"]); c != "" {
		id, err := strconv.ParseInt(c, 10, 64)
		if err != nil || id <= 0 {
			return nil, apperr.Validation("invalid category filter")
		}
		req.Filters["category"] = strconv.FormatInt(id, 10)
	}

	l := query.Products.Build(req)
	products, total, err := s.products.List(ctx, l)
	if err != nil {
		s.logger.Error("failed to list products", zap.Error(err))
		return nil, apperr.Unexpected(err)
	}

	return &domain.ProductListResponse{
		Products: products,
		Total:    total,
		Page:     l.Page,
		Pages:    query.TotalPages(total, l.Limit),
	}, nil
}
