package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/middleware"
	"github.com/MorseWayne/admin_panel/internal/resp"
	"github.com/MorseWayne/admin_panel/internal/service"
)

// CategoryHandler 分类相关的HTTP处理器
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewCategoryHandler 创建分类处理器实例
func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, logger: logger}
}

// CreateCategory POST /api/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCategoryRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	category, err := h.categoryService.Create(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.Created(w, category, middleware.RequestIDFromContext(r.Context()), "")
}

// ListCategories GET /api/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, map[string]any{"categories": categories}, middleware.RequestIDFromContext(r.Context()), "")
}
