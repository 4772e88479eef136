// Package service 提供业务逻辑层实现。
// 服务层负责协调领域对象和仓储，实现具体的业务用例。
// 返回的错误均为 *apperr.Error，API 层据此决定状态码。
package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/apperr"
	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/query"
	"github.com/MorseWayne/admin_panel/internal/repo"
)

const (
	msgUserNotFound       = "user not found"
	msgEmailRegistered    = "email already registered"
	msgInvalidCredentials = "invalid email or password"
	msgPasswordTooLong    = "password must be at most 72 bytes"
)

// UserService 定义用户服务接口
type UserService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, req *domain.UpdateUserRequest) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, req *domain.UpdateProfileRequest) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, req query.PageRequest) (*domain.UserListResponse, error)
	// EnsureAdmin 保证指定邮箱的管理员存在，已存在时不做修改
	EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error)
}

// userService 是 UserService 接口的实现
type userService struct {
	users  repo.UserRepository
	hasher PasswordHasher
	tokens JWTService
	logger *zap.Logger
}

// NewUserService 创建用户服务实例
func NewUserService(users repo.UserRepository, hasher PasswordHasher, tokens JWTService, logger *zap.Logger) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Login 校验邮箱与密码并签发令牌
// 用户不存在与密码错误返回同一错误，不暴露邮箱是否注册
func (s *userService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error("failed to get user by email", zap.Error(err))
		return nil, apperr.Unexpected(err)
	}
	if user == nil || !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.logger.Info("login rejected", zap.String("email", domain.NormalizeEmail(req.Email)))
		return nil, apperr.Authentication(msgInvalidCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role, 0)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))

	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: &domain.UserSummary{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// Register 用户自助注册，角色固定为 user
func (s *userService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	return s.create(ctx, req.Name, req.Email, req.Password, domain.UserRoleUser)
}

// Create 管理员创建用户，未指定角色时为 user
func (s *userService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	role := req.Role
	if role == "" {
		role = domain.UserRoleUser
	}
	if !role.Valid() {
		return nil, apperr.Validation("invalid role")
	}
	return s.create(ctx, req.Name, req.Email, req.Password, role)
}

func (s *userService) create(ctx context.Context, name, email, password string, role domain.UserRole) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to check email", zap.Error(err))
		return nil, apperr.Unexpected(err)
	}
	if existing != nil {
		return nil, apperr.Conflict(msgEmailRegistered)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 并发注册同一邮箱时由唯一索引兜底
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperr.Conflict(msgEmailRegistered)
		}
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, apperr.Unexpected(err)
	}

	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// hashPassword 超长密码属于输入错误，其余哈希失败按内部错误处理
func (s *userService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, ErrPasswordTooLong) {
		return "", apperr.Validation(msgPasswordTooLong)
	}
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return "", apperr.Unexpected(err)
	}
	return hash, nil
}

// Get 根据ID获取用户
func (s *userService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user by id", zap.Int64("id", id), zap.Error(err))
		return nil, apperr.Unexpected(err)
	}
	if user == nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	return user, nil
}

// Update 管理员更新用户，可修改角色
func (s *userService) Update(ctx context.Context, id int64, req *domain.UpdateUserRequest) (*domain.User, error) {
	if req.Role != nil && !req.Role.Valid() {
		return nil, apperr.Validation("invalid role")
	}
	return s.update(ctx, id, req.Name, req.Email, req.Password, req.Role)
}

// UpdateProfile 用户更新自己的资料，角色不可修改
func (s *userService) UpdateProfile(ctx context.Context, id int64, req *domain.UpdateProfileRequest) (*domain.User, error) {
	return s.update(ctx, id, req.Name, req.Email, req.Password, nil)
}

func (s *userService) update(ctx context.Context, id int64, name, email, password *string, role *domain.UserRole) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		user.Name = strings.TrimSpace(*name)
	}
	if email != nil {
		normalized := domain.NormalizeEmail(*email)
		if normalized != user.Email {
			other, err := s.users.GetByEmail(ctx, normalized)
			if err != nil {
				return nil, apperr.Unexpected(err)
			}
			if other != nil {
				return nil, apperr.Conflict(msgEmailRegistered)
			}
		}
		user.Email = normalized
	}
	if password != nil {
		hash, err := s.hashPassword(*password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if role != nil {
		user.Role = *role
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, apperr.NotFound(msgUserNotFound)
		case errors.Is(err, repo.ErrDuplicate):
			return nil, apperr.Conflict(msgEmailRegistered)
		}
		s.logger.Error("failed to update user", zap.Int64("id", id), zap.Error(err))
		return nil, apperr.Unexpected(err)
	}

	s.logger.Info("user updated", zap.Int64("user_id", id))
	return s.Get(ctx, id)
}

// Delete 删除用户
func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		s.logger.Error("failed to delete user", zap.Int64("id", id), zap.Error(err))
		return apperr.Unexpected(err)
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return nil
}

// List 分页查询用户
func (s *userService) List(ctx context.Context, req query.PageRequest) (*domain.UserListResponse, error) {
	if role, ok := req.Filters["role"]; ok && strings.TrimSpace(role) != "" {
		parsed, err := domain.ParseUserRole(role)
		if err != nil {
			return nil, apperr.Validation("invalid role filter")
		}
		req.Filters["role"] = string(parsed)
	}

	l := query.Users.Build(req)
	users, total, err := s.users.List(ctx, l)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, apperr.Unexpected(err)
	}

	return &domain.UserListResponse{
		Users: users,
		Total: total,
		Page:  l.Page,
		Pages: query.TotalPages(total, l.Limit),
	}, nil
}

// EnsureAdmin 启动时引导创建管理员账号
func (s *userService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	if existing != nil {
		if !existing.IsAdmin() {
			s.logger.Warn("bootstrap admin email belongs to a non-admin user",
				zap.Int64("user_id", existing.ID),
				zap.String("role", string(existing.Role)),
			)
		}
		return existing, nil
	}
	return s.create(ctx, name, email, password, domain.UserRoleAdmin)
}
