package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/middleware"
	"github.com/MorseWayne/admin_panel/internal/resp"
	"github.com/MorseWayne/admin_panel/internal/service"
)

// ProductHandler 商品相关的HTTP处理器
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler 创建商品处理器实例
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// CreateProduct 创建商品
// POST /api/products
// 需要管理员权限
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	product, err := h.productService.Create(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.Created(w, product, middleware.RequestIDFromContext(r.Context()), "")
}

// GetProduct 获取商品详情
// GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, product, middleware.RequestIDFromContext(r.Context()), "")
}

// UpdateProduct 更新商品
// PUT /api/products/{id}
// 需要管理员权限
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req domain.UpdateProductRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	product, err := h.productService.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, product, middleware.RequestIDFromContext(r.Context()), "")
}

// DeleteProduct 删除商品
// DELETE /api/products/{id}
// 需要管理员权限
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, map[string]any{"id": id, "deleted": true}, middleware.RequestIDFromContext(r.Context()), "")
}

// ListProducts 获取商品列表
// GET /api/products?page&limit&search&keyword&category&name
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.productService.List(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, list, middleware.RequestIDFromContext(r.Context()), "")
}
