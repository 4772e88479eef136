package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/apperr"
	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/middleware"
	"github.com/MorseWayne/admin_panel/internal/resp"
	"github.com/MorseWayne/admin_panel/internal/service"
)

// UserHandler 用户与认证相关的HTTP处理器
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// Register 处理用户注册请求
// POST /api/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.Created(w, user, middleware.RequestIDFromContext(r.Context()), "")
}

// Login 处理用户登录请求
// POST /api/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, out, middleware.RequestIDFromContext(r.Context()), "")
}

// ListUsers 分页查询用户
// GET /api/users?page&limit&search&role&name&email
// 需要管理员权限
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.userService.List(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, list, middleware.RequestIDFromContext(r.Context()), "")
}

// CreateUser 管理员创建用户
// POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.Created(w, user, middleware.RequestIDFromContext(r.Context()), "")
}

// GetUser 获取用户详情
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, user, middleware.RequestIDFromContext(r.Context()), "")
}

// UpdateUser 管理员更新用户，只修改请求中出现的字段
// PUT /api/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req domain.UpdateUserRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, user, middleware.RequestIDFromContext(r.Context()), "")
}

// DeleteUser 删除用户
// DELETE /api/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, map[string]any{"id": id, "deleted": true}, middleware.RequestIDFromContext(r.Context()), "")
}

// GetProfile 获取当前用户信息
// GET /api/users/me
// 需要认证：使用AuthMiddleware保护
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperr.Authentication("authentication required"))
		return
	}

	// 从存储读取最新资料，令牌中只有 id 和角色
	user, err := h.userService.Get(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, user, middleware.RequestIDFromContext(r.Context()), "")
}

// UpdateProfile 更新当前用户资料
// PUT /api/users/me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperr.Authentication("authentication required"))
		return
	}

	var req domain.UpdateProfileRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), principal.UserID, &req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp.OK(w, user, middleware.RequestIDFromContext(r.Context()), "")
}
